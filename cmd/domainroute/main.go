package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	droute "github.com/folbricht/domainroute"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	logLevel string
	router   string
}

func main() {
	var opt options
	cmd := &cobra.Command{
		Use:   "domainroute",
		Short: "DNS resolver routing queries by domain",
		Long: `DNS resolver routing queries by domain.

Routers send queries to groups of upstream servers
based on the query name. The most specific configured
domain wins: a query for sub.example.com uses the
servers for sub.example.com if there are any, then
those for example.com, com, and finally the default
route ".". Queries without any route go to the
router's fallback.
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opt.logLevel)
			if err != nil {
				return err
			}
			droute.Log.SetLevel(level)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opt.logLevel, "log-level", "l", "warning", "log level; panic, fatal, error, warning, info, debug, trace")
	cmd.PersistentFlags().StringVarP(&opt.router, "router", "r", "", "router to use, defaults to the one set in the config")

	cmd.AddCommand(
		resolveCmd(&opt),
		routeCmd(&opt),
		checkCmd(),
	)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveCmd(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <config> <name> [type]",
		Short:   "Resolve a name with a router",
		Example: `  domainroute resolve config.toml www.example.com AAAA`,
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, inst, err := load(args[0])
			if err != nil {
				return err
			}
			id, err := routerID(cfg, opt.router)
			if err != nil {
				return err
			}
			qtype := dns.TypeA
			if len(args) == 3 {
				t, ok := dns.StringToType[strings.ToUpper(args[2])]
				if !ok {
					return fmt.Errorf("unknown query type '%s'", args[2])
				}
				qtype = t
			}
			q := new(dns.Msg)
			q.SetQuestion(dns.Fqdn(args[1]), qtype)
			a, err := inst.resolvers[id].Resolve(q, droute.ClientInfo{})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func routeCmd(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:     "route <config> <name>",
		Short:   "Show which route a router uses for a name",
		Example: `  domainroute route config.toml www.example.com`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, inst, err := load(args[0])
			if err != nil {
				return err
			}
			id, err := routerID(cfg, opt.router)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeRoute(inst.routers[id], cfg.Routers[id].fallbackID(), args[1]))
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a config and print the routing tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, inst, err := load(args[0])
			if err != nil {
				return err
			}
			printRouters(cmd.OutOrStdout(), cfg, inst)
			return nil
		},
	}
}

// Prints every router with its fallback and routing table.
func printRouters(w io.Writer, cfg config, inst *instance) {
	for _, id := range sortedKeys(cfg.Routers) {
		r := inst.routers[id]
		fallback := cfg.Routers[id].fallbackID()
		fmt.Fprintf(w, "%s (fallback %s)\n", id, fallback)
		for _, key := range r.RoutingTable().Keys() {
			fmt.Fprintf(w, "  %s\n", describeRoute(r, fallback, key))
		}
	}
}

func load(name string) (config, *instance, error) {
	cfg, err := loadConfig(name)
	if err != nil {
		return cfg, nil, err
	}
	inst, err := instantiate(cfg)
	return cfg, inst, err
}

// Picks the router to use. An explicit ID wins over the config default, which
// wins over the only router in the config.
func routerID(cfg config, id string) (string, error) {
	if id == "" {
		id = cfg.Default
	}
	if id == "" {
		if len(cfg.Routers) != 1 {
			return "", errors.New("no router selected and no default router in config")
		}
		for k := range cfg.Routers {
			id = k
		}
	}
	if _, ok := cfg.Routers[id]; !ok {
		return "", fmt.Errorf("router '%s' not found", id)
	}
	return id, nil
}

// Describes the route a router picks for a name. Fallbacks are shown by their
// ID in the config.
func describeRoute(r *droute.RoutingResolver, fallback, name string) string {
	if t := r.RoutingTable(); t != nil {
		if key, resolver, ok := t.Match(name); ok {
			if g, ok := resolver.(*droute.ServerGroup); ok {
				return fmt.Sprintf("%s -> %s [%s]", name, key, strings.Join(g.Servers(), ", "))
			}
			return fmt.Sprintf("%s -> %s [%s]", name, key, resolver)
		}
	}
	return fmt.Sprintf("%s -> fallback %s", name, fallback)
}

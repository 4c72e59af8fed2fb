package main

import (
	"fmt"
	"sort"
	"time"

	droute "github.com/folbricht/domainroute"
	"github.com/heimdalr/dag"
	"github.com/pkg/errors"
)

// Name of the built-in fallback that answers every query with an empty response.
const noopID = "noop"

// Resolvers instantiated from a config, keyed by ID.
type instance struct {
	// Groups, routers and the noop fallback
	resolvers map[string]droute.Resolver

	// Routers only, without the syslog wrapper
	routers map[string]*droute.RoutingResolver
}

// Instantiates all groups and routers from the config.
func instantiate(cfg config) (*instance, error) {
	resolvers := map[string]droute.Resolver{
		noopID: droute.NewNoOpResolver(noopID),
	}
	routers := make(map[string]*droute.RoutingResolver)

	// Groups first, since routers reference them as fallback
	for _, id := range sortedKeys(cfg.Groups) {
		if _, ok := resolvers[id]; ok {
			return nil, fmt.Errorf("group defined with duplicate id '%s'", id)
		}
		g := cfg.Groups[id]
		opt, err := groupOptions(g.upstream)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse group '%s'", id)
		}
		sg, err := droute.NewServerGroup(id, g.Servers, opt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create group '%s'", id)
		}
		if err := configureSession(sg, g.upstream); err != nil {
			return nil, errors.Wrapf(err, "failed to configure group '%s'", id)
		}
		resolvers[id] = sg
	}

	// Routers can fall back to other routers, so they need to be created in
	// dependency order.
	order, err := routerOrder(cfg.Routers)
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		if _, ok := resolvers[id]; ok {
			return nil, fmt.Errorf("router defined with duplicate id '%s'", id)
		}
		rr, err := instantiateRouter(id, cfg.Routers[id], resolvers)
		if err != nil {
			return nil, err
		}
		routers[id] = rr
		resolvers[id] = rr
		if s := cfg.Routers[id].Syslog; s != nil {
			resolvers[id], err = droute.NewSyslog(id, rr, droute.SyslogOptions{
				Network:     s.Network,
				Address:     s.Address,
				Priority:    s.Priority,
				Tag:         s.Tag,
				LogResponse: s.LogResponse,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return &instance{resolvers: resolvers, routers: routers}, nil
}

func instantiateRouter(id string, r router, resolvers map[string]droute.Resolver) (*droute.RoutingResolver, error) {
	fallback, ok := resolvers[r.fallbackID()]
	if !ok {
		return nil, fmt.Errorf("router '%s' references non-existent fallback '%s'", id, r.fallbackID())
	}
	table, err := buildTable(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build routing table for router '%s'", id)
	}
	rr := droute.NewRoutingResolver(id, fallback)
	rr.SetRoutingTable(table)
	return rr, nil
}

// Compiles the routes of a router into a routing table.
func buildTable(r router) (*droute.RoutingTable, error) {
	opt, err := groupOptions(r.upstream)
	if err != nil {
		return nil, err
	}
	b := droute.NewRoutingTableBuilder(droute.RoutingTableBuilderOptions{
		Factory: func(id string, servers []string) (droute.Resolver, error) {
			g, err := droute.NewServerGroup(id, servers, opt)
			if err != nil {
				return nil, err
			}
			return g, configureSession(g, r.upstream)
		},
	})
	for _, domain := range sortedKeys(r.Routes) {
		if err := b.Add(domain, r.Routes[domain]); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func groupOptions(u upstream) (droute.GroupOptions, error) {
	opt := droute.GroupOptions{
		TCP:              u.TCP,
		IgnoreTruncation: u.IgnoreTruncation,
		DoHMethod:        u.DoHMethod,
	}
	if u.Timeout != "" {
		d, err := time.ParseDuration(u.Timeout)
		if err != nil {
			return opt, err
		}
		opt.Timeout = d
	}
	if u.CA != "" || u.ClientCrt != "" || u.ServerName != "" {
		tlsConfig, err := droute.TLSClientConfig(u.CA, u.ClientCrt, u.ClientKey, u.ServerName)
		if err != nil {
			return opt, err
		}
		opt.TLSConfig = tlsConfig
	}
	return opt, nil
}

// Applies the settings that are changed on the group after it was created.
func configureSession(r droute.ConfigurableResolver, u upstream) error {
	if u.TSIGKeyName != "" {
		if err := r.SetTSIGKey(u.TSIGKeyName, u.TSIGAlgorithm, u.TSIGSecret); err != nil {
			return err
		}
	}
	if u.EDNSUDPSize > 0 {
		if err := r.SetEDNS(0, u.EDNSUDPSize, u.EDNSDo); err != nil {
			return err
		}
	}
	return nil
}

// ID of the resolver a router falls back to. Routers without one use noop.
func (r router) fallbackID() string {
	if r.Fallback == "" {
		return noopID
	}
	return r.Fallback
}

// Graph vertex identified by the router ID.
type vertex string

func (v vertex) ID() string { return string(v) }

// Returns the router IDs ordered such that each router comes after the router
// it falls back to. Fails if the fallbacks form a loop.
func routerOrder(routers map[string]router) ([]string, error) {
	graph := dag.NewDAG()
	for _, id := range sortedKeys(routers) {
		if _, err := graph.AddVertex(vertex(id)); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(routers) {
		fallback := routers[id].Fallback
		if _, ok := routers[fallback]; !ok {
			continue
		}
		if err := graph.AddEdge(id, fallback); err != nil {
			return nil, errors.Wrapf(err, "invalid fallback '%s' for router '%s'", fallback, id)
		}
	}
	var order []string
	for graph.GetOrder() > 0 {
		var leaves []string
		for id := range graph.GetLeaves() {
			leaves = append(leaves, id)
		}
		sort.Strings(leaves)
		for _, id := range leaves {
			if err := graph.DeleteVertex(id); err != nil {
				return nil, err
			}
			order = append(order, id)
		}
	}
	return order, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

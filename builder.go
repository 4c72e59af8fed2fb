package droute

import (
	"fmt"
	"strings"
)

// ResolverFactory creates the backend resolver for one routing table entry from
// its ordered list of servers.
type ResolverFactory func(id string, servers []string) (Resolver, error)

// RoutingTableBuilderOptions contain settings for building routing tables.
type RoutingTableBuilderOptions struct {
	// Creates the resolver for each destination. Defaults to a ServerGroup
	// using GroupOptions.
	Factory ResolverFactory

	// Options passed to every ServerGroup created by the default factory.
	GroupOptions GroupOptions
}

// RoutingTableBuilder collects destinations and their servers and compiles them
// into a RoutingTable. A builder is not safe for concurrent use.
type RoutingTableBuilder struct {
	opt          RoutingTableBuilderOptions
	destinations map[string][]string
	err          error
}

// NewRoutingTableBuilder returns a builder without any destinations.
func NewRoutingTableBuilder(opt RoutingTableBuilderOptions) *RoutingTableBuilder {
	if opt.Factory == nil {
		groupOpt := opt.GroupOptions
		opt.Factory = func(id string, servers []string) (Resolver, error) {
			return NewServerGroup(id, servers, groupOpt)
		}
	}
	return &RoutingTableBuilder{
		opt:          opt,
		destinations: make(map[string][]string),
	}
}

// Add appends servers to a destination. An empty destination is the root and
// is used for any query that doesn't match a more specific destination. Blank
// servers are skipped. A nil server list is a configuration error. A list with
// no servers, or only blank ones, still adds the destination, and Build fails
// for it unless the factory accepts an empty server list.
func (b *RoutingTableBuilder) Add(destination string, servers []string) error {
	if servers == nil {
		return &ConfigurationError{Destination: destination}
	}
	key := NormalizeDomain(destination)
	list := b.destinations[key]
	if list == nil {
		list = []string{}
	}
	for _, s := range servers {
		if strings.TrimSpace(s) == "" {
			continue
		}
		list = append(list, s)
	}
	b.destinations[key] = list
	return nil
}

// With works like Add but returns the builder to allow chaining. The first
// configuration error is kept and returned by Err and Build.
func (b *RoutingTableBuilder) With(destination string, servers ...string) *RoutingTableBuilder {
	if err := b.Add(destination, servers); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// Err returns the first configuration error recorded by With.
func (b *RoutingTableBuilder) Err() error {
	return b.err
}

// DestinationMap returns a copy of the destinations and their servers, keyed by
// normalized domain.
func (b *RoutingTableBuilder) DestinationMap() map[string][]string {
	m := make(map[string][]string, len(b.destinations))
	for k, v := range b.destinations {
		m[k] = append([]string{}, v...)
	}
	return m
}

// Build creates a resolver for every destination and returns them as a new
// routing table. If any of the resolvers can't be created, no table is returned.
func (b *RoutingTableBuilder) Build() (*RoutingTable, error) {
	if b.err != nil {
		return nil, b.err
	}
	entries := make(map[string]Resolver, len(b.destinations))
	for key, servers := range b.destinations {
		r, err := b.opt.Factory(fmt.Sprintf("route(%s)", key), append([]string{}, servers...))
		if err != nil {
			return nil, &RoutingSetupError{Destination: key, Err: err}
		}
		entries[key] = r
	}
	return &RoutingTable{entries: entries}, nil
}

package droute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// RoutingTable maps domains to the resolvers responsible for them. A domain
// is matched against the most specific entry first, then against each of its
// parent domains up to and including the root ".". A table is immutable once
// built and safe for concurrent use.
type RoutingTable struct {
	entries map[string]Resolver
}

// NewRoutingTable returns a table over the given resolvers, keyed by domain.
// Keys are normalized with NormalizeDomain. If two keys normalize to the same
// domain, one of them is dropped.
func NewRoutingTable(entries map[string]Resolver) *RoutingTable {
	t := &RoutingTable{entries: make(map[string]Resolver, len(entries))}
	for domain, r := range entries {
		t.entries[NormalizeDomain(domain)] = r
	}
	return t
}

// Lookup returns the resolver for the closest configured ancestor of the
// domain, or false if neither the domain, any parent, nor the root have an entry.
func (t *RoutingTable) Lookup(domain string) (Resolver, bool) {
	_, r, ok := t.Match(domain)
	return r, ok
}

// Match works like Lookup but also returns the key of the matching entry.
func (t *RoutingTable) Match(domain string) (string, Resolver, bool) {
	name := NormalizeDomain(domain)

	// Walk up the hierarchy one label at a time. Labels are only ever removed
	// whole, so "notexample.com." can't match an entry for "example.com.".
	for off, end := 0, false; !end; off, end = dns.NextLabel(name, off) {
		key := name[off:]
		if r, ok := t.entries[key]; ok {
			return key, r, true
		}
	}
	if r, ok := t.entries["."]; ok {
		return ".", r, true
	}
	return "", nil, false
}

// Len returns the number of entries in the table.
func (t *RoutingTable) Len() int {
	return len(t.entries)
}

// Keys returns the sorted list of domains in the table.
func (t *RoutingTable) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *RoutingTable) String() string {
	var rs []string
	for _, k := range t.Keys() {
		rs = append(rs, fmt.Sprintf("%s->%s", k, t.entries[k]))
	}
	return fmt.Sprintf("RoutingTable(%s)", strings.Join(rs, ";"))
}

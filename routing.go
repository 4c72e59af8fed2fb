package droute

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// RoutingResolver sends queries to the resolver its routing table has for the
// query name. Queries that don't match any entry, or arrive before a table was
// set, go to the fallback resolver. The table can be replaced at any time.
type RoutingResolver struct {
	id       string
	fallback Resolver
	table    atomic.Pointer[RoutingTable]
	metrics  *routingMetrics
}

var _ ConfigurableResolver = &RoutingResolver{}

// routingMetrics counts the decisions made by a routing resolver.
type routingMetrics struct {
	// Queries routed, by matching table entry.
	route *expvar.Map
	// Queries sent to the fallback resolver.
	fallback *expvar.Int
	// Number of times the table was replaced.
	reload *expvar.Int
}

func newRoutingMetrics(id string) *routingMetrics {
	return &routingMetrics{
		route:    getVarMap("router", id, "route"),
		fallback: getVarInt("router", id, "fallback"),
		reload:   getVarInt("router", id, "reload"),
	}
}

// NewRoutingResolver returns a routing resolver without a routing table. Until
// one is set, all queries are sent to the fallback.
func NewRoutingResolver(id string, fallback Resolver) *RoutingResolver {
	return &RoutingResolver{
		id:       id,
		fallback: fallback,
		metrics:  newRoutingMetrics(id),
	}
}

// Resolve a query by sending it to the resolver responsible for the query name.
// Responses and errors from that resolver are returned unchanged.
func (r *RoutingResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	if len(q.Question) < 1 {
		return nil, errNoQuestion
	}
	log := logger(r.id, q, ci)
	if t := r.table.Load(); t != nil {
		if key, resolver, ok := t.Match(q.Question[0].Name); ok {
			log.WithFields(logrus.Fields{"route": key, "resolver": resolver}).Debug("routing query")
			r.metrics.route.Add(key, 1)
			return resolver.Resolve(q, ci)
		}
	}
	log.WithField("resolver", r.fallback).Debug("no route, using fallback")
	r.metrics.fallback.Add(1)
	return r.fallback.Resolve(q, ci)
}

// SetRoutingTable replaces the routing table. Queries in flight finish with
// the table they started with. A nil table is ignored.
func (r *RoutingResolver) SetRoutingTable(t *RoutingTable) {
	if t == nil {
		return
	}
	r.table.Store(t)
	r.metrics.reload.Add(1)
	Log.WithFields(logrus.Fields{"id": r.id, "entries": t.Len()}).Debug("routing table updated")
}

// RoutingTable returns the current routing table, or nil if none was set.
func (r *RoutingResolver) RoutingTable() *RoutingTable {
	return r.table.Load()
}

// Fallback returns the resolver used for queries without a route.
func (r *RoutingResolver) Fallback() Resolver {
	return r.fallback
}

// The resolvers in the table are configured independently of each other, so
// none of the settings below apply to a routing resolver.

func (r *RoutingResolver) SetTCP(bool) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) SetIgnoreTruncation(bool) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) SetTimeout(time.Duration) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) SetTSIGKey(name, algorithm, secret string) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) SetEDNS(version uint8, udpSize uint16, do bool) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) ResolveAsync(*dns.Msg, ClientInfo, func(*dns.Msg, error)) error {
	return ErrOperationNotSupported
}

func (r *RoutingResolver) String() string {
	return r.id
}

package droute

import (
	"time"

	"github.com/miekg/dns"
)

// NoOpResolver answers every query with an empty response that only carries the
// question. It never fails and never sends anything upstream, which makes it a
// safe fallback for routing resolvers.
type NoOpResolver struct {
	id string
}

var _ ConfigurableResolver = &NoOpResolver{}

// NewNoOpResolver returns a new instance of a no-op resolver.
func NewNoOpResolver(id string) *NoOpResolver {
	return &NoOpResolver{id: id}
}

// Resolve returns an empty response with the question from the query.
func (r *NoOpResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	logger(r.id, q, ci).Debug("answering with empty response")
	return emptyResponse(q), nil
}

func (r *NoOpResolver) SetTCP(bool) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) SetIgnoreTruncation(bool) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) SetTimeout(time.Duration) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) SetTSIGKey(name, algorithm, secret string) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) SetEDNS(version uint8, udpSize uint16, do bool) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) ResolveAsync(*dns.Msg, ClientInfo, func(*dns.Msg, error)) error {
	return ErrOperationNotSupported
}

func (r *NoOpResolver) String() string {
	return r.id
}

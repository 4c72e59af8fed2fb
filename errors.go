package droute

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// ErrOperationNotSupported is returned by resolvers for settings and operations
// they don't implement.
var ErrOperationNotSupported error = OperationNotSupportedError{}

// OperationNotSupportedError is returned by resolvers that only implement a
// subset of ConfigurableResolver.
type OperationNotSupportedError struct{}

func (e OperationNotSupportedError) Error() string {
	return "Operation not supported"
}

// ConfigurationError is returned when a routing destination is configured without
// a list of servers.
type ConfigurationError struct {
	Destination string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("null server list passed for destination [%s]", e.Destination)
}

// RoutingSetupError is returned when a routing table can't be built because one of
// its backend resolvers failed to initialize.
type RoutingSetupError struct {
	Destination string
	Err         error
}

func (e *RoutingSetupError) Error() string {
	return fmt.Sprintf("failed to create dns routing table for '%s': %s", e.Destination, e.Err)
}

func (e *RoutingSetupError) Unwrap() error {
	return e.Err
}

// QueryTimeoutError is returned when a query times out.
type QueryTimeoutError struct {
	query *dns.Msg
}

func (e QueryTimeoutError) Error() string {
	return fmt.Sprintf("query for '%s' timed out", qName(e.query))
}

var errNoQuestion = errors.New("no question in query")

package droute

import (
	"expvar"
	"fmt"
)

// Get an *expvar.Int with the given path.
func getVarInt(base string, id string, name string) *expvar.Int {
	fullname := fmt.Sprintf("domainroute.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Int)
	}
	return expvar.NewInt(fullname)
}

// Get an *expvar.Map with the given path.
func getVarMap(base string, id string, name string) *expvar.Map {
	fullname := fmt.Sprintf("domainroute.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Map)
	}
	return expvar.NewMap(fullname)
}

// clientMetrics counts queries sent by an upstream client and their outcome.
type clientMetrics struct {
	// Queries sent upstream.
	query *expvar.Int
	// Responses received, by rcode.
	response *expvar.Map
	// Failures, by type.
	err *expvar.Map
}

func newClientMetrics(id string) *clientMetrics {
	return &clientMetrics{
		query:    getVarInt("client", id, "query"),
		response: getVarMap("client", id, "response"),
		err:      getVarMap("client", id, "error"),
	}
}

package droute

import (
	"strconv"

	"github.com/miekg/dns"
)

// Return the query name from a DNS query.
func qName(q *dns.Msg) string {
	if q == nil || len(q.Question) == 0 {
		return ""
	}
	return q.Question[0].Name
}

// Returns the string representation of the query type.
func qType(q *dns.Msg) string {
	if q == nil || len(q.Question) == 0 {
		return ""
	}
	return dns.TypeToString[q.Question[0].Qtype]
}

// Return the result code name from a DNS response.
func rCode(r *dns.Msg) string {
	if result, ok := dns.RcodeToString[r.Rcode]; ok {
		return result
	}
	return strconv.Itoa(r.Rcode)
}

// Builds an empty response to a query, carrying only the query's question.
func emptyResponse(q *dns.Msg) *dns.Msg {
	a := new(dns.Msg)
	a.Id = q.Id
	a.Response = true
	a.Opcode = q.Opcode
	a.RecursionDesired = q.RecursionDesired
	if len(q.Question) > 0 {
		a.Question = []dns.Question{q.Question[0]}
	}
	return a
}

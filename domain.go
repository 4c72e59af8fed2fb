package droute

import "strings"

// NormalizeDomain returns the key used to store and look up a domain in a
// routing table. An empty domain is the root ".", anything else is lowercased
// and made fully qualified. No other validation is done.
func NormalizeDomain(domain string) string {
	if domain == "" {
		return "."
	}
	domain = strings.ToLower(domain)
	if !strings.HasSuffix(domain, ".") {
		domain += "."
	}
	return domain
}

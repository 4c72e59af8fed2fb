package droute

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestParseTSIGKey(t *testing.T) {
	name, alg, err := parseTSIGKey("Key.Example", "HMAC-SHA256", "c2VjcmV0")
	require.NoError(t, err)
	require.Equal(t, "key.example.", name)
	require.Equal(t, dns.HmacSHA256, alg)

	_, _, err = parseTSIGKey("key.", "hmac-md4", "c2VjcmV0")
	require.Error(t, err)
	_, _, err = parseTSIGKey("key.", dns.HmacSHA256, "not base64!")
	require.Error(t, err)
	_, _, err = parseTSIGKey("", dns.HmacSHA256, "c2VjcmV0")
	require.Error(t, err)
}

func TestQuerySettingsPrepare(t *testing.T) {
	s := querySettings{
		EDNS:          true,
		EDNSVersion:   0,
		EDNSUDPSize:   1232,
		EDNSDo:        true,
		TSIGName:      "key.",
		TSIGAlgorithm: dns.HmacSHA256,
		TSIGSecret:    "c2VjcmV0",
	}
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	s.prepare(q)

	edns0 := q.IsEdns0()
	require.NotNil(t, edns0)
	require.Equal(t, uint16(1232), edns0.UDPSize())
	require.True(t, edns0.Do())
	require.NotNil(t, q.IsTsig())
	require.Equal(t, map[string]string{"key.": "c2VjcmV0"}, s.tsigSecret())

	// Existing EDNS0 records are left alone
	q = new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	q.SetEdns0(4096, false)
	s.prepare(q)
	require.Equal(t, uint16(4096), q.IsEdns0().UDPSize())
}

func TestQuerySettingsTimeout(t *testing.T) {
	require.Equal(t, defaultQueryTimeout, querySettings{}.timeout())
}

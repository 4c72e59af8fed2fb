package droute

import (
	"errors"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestNoOpResolve(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	for _, qtype := range []uint16{dns.TypeA, dns.TypeMX, dns.TypeANY, 65280} {
		q := new(dns.Msg)
		q.SetQuestion("random.host.", qtype)
		q.Question[0].Qclass = dns.ClassCHAOS

		a, err := r.Resolve(q, ClientInfo{})
		require.NoError(t, err)
		require.Equal(t, q.Id, a.Id)
		require.Equal(t, q.Question, a.Question)
		require.Empty(t, a.Answer)
		require.Empty(t, a.Ns)
		require.Empty(t, a.Extra)
	}
}

func TestNoOpResolveUpdate(t *testing.T) {
	q := new(dns.Msg)
	q.SetUpdate("example.com.")
	q.Insert([]dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "www.example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET}}})

	a, err := NewNoOpResolver("test-noop").Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, q.Question, a.Question)
	require.Empty(t, a.Ns) // update section
	require.Empty(t, a.Answer)
}

func TestNoOpResolveNoQuestion(t *testing.T) {
	a, err := NewNoOpResolver("test-noop").Resolve(new(dns.Msg), ClientInfo{})
	require.NoError(t, err)
	require.Empty(t, a.Question)
}

func requireNotSupported(t *testing.T, err error) {
	t.Helper()
	require.True(t, errors.Is(err, ErrOperationNotSupported))
	require.EqualError(t, err, "Operation not supported")
}

func TestNoOpSetTCP(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	requireNotSupported(t, r.SetTCP(true))
	requireNotSupported(t, r.SetTCP(false))
}

func TestNoOpSetIgnoreTruncation(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	requireNotSupported(t, r.SetIgnoreTruncation(true))
	requireNotSupported(t, r.SetIgnoreTruncation(false))
}

func TestNoOpSetTimeout(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	requireNotSupported(t, r.SetTimeout(time.Second))
	requireNotSupported(t, r.SetTimeout(0))
}

func TestNoOpSetTSIGKey(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	requireNotSupported(t, r.SetTSIGKey("key.", dns.HmacSHA256, "c2VjcmV0"))
	requireNotSupported(t, r.SetTSIGKey("", "", ""))
}

func TestNoOpSetEDNS(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	requireNotSupported(t, r.SetEDNS(0, 1232, true))
}

func TestNoOpResolveAsync(t *testing.T) {
	r := NewNoOpResolver("test-noop")
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	called := false
	requireNotSupported(t, r.ResolveAsync(q, ClientInfo{}, func(*dns.Msg, error) { called = true }))
	requireNotSupported(t, r.ResolveAsync(nil, ClientInfo{}, nil))
	require.False(t, called)
}

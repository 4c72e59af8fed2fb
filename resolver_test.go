package droute

import (
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// TestResolver is a resolver that counts queries and, if set, answers them with
// ResolveFunc. Without a function, queries get an empty response.
type TestResolver struct {
	mu          sync.Mutex
	ResolveFunc func(*dns.Msg, ClientInfo) (*dns.Msg, error)
	hitCount    int
	id          string
}

var _ Resolver = &TestResolver{}

func (r *TestResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	r.mu.Lock()
	r.hitCount++
	r.mu.Unlock()
	if r.ResolveFunc != nil {
		return r.ResolveFunc(q, ci)
	}
	return emptyResponse(q), nil
}

func (r *TestResolver) HitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hitCount
}

func (r *TestResolver) String() string {
	if r.id == "" {
		return "TestResolver()"
	}
	return r.id
}

// Factory for routing tables that creates a TestResolver named after the servers.
func testFactory(id string, servers []string) (Resolver, error) {
	for _, s := range servers {
		if s == "fail" {
			return nil, errors.New("server failed")
		}
	}
	return &TestResolver{id: strings.Join(servers, ",")}, nil
}

func testBuilder() *RoutingTableBuilder {
	return NewRoutingTableBuilder(RoutingTableBuilderOptions{Factory: testFactory})
}

// Starts a DNS server on UDP and TCP on the same port of the loopback interface.
func startTestServer(t *testing.T, handler dns.HandlerFunc) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	l, err := net.Listen("tcp", pc.LocalAddr().String())
	require.NoError(t, err)

	udpStarted := make(chan struct{})
	tcpStarted := make(chan struct{})
	udp := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(udpStarted) }}
	tcp := &dns.Server{Listener: l, Handler: handler, NotifyStartedFunc: func() { close(tcpStarted) }}
	go func() { _ = udp.ActivateAndServe() }()
	go func() { _ = tcp.ActivateAndServe() }()
	<-udpStarted
	<-tcpStarted
	t.Cleanup(func() {
		_ = udp.Shutdown()
		_ = tcp.Shutdown()
	})
	return pc.LocalAddr().String()
}

// Returns a response with a single A record.
func answerA(q *dns.Msg, ip string) *dns.Msg {
	a := new(dns.Msg)
	a.SetReply(q)
	a.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{Name: q.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.ParseIP(ip),
	}}
	return a
}

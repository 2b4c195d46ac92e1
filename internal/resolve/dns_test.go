package resolve

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/kush-sh/kush/internal/target"
)

// startTestDNSServer runs a miekg/dns server on a random UDP port
// backed by handler and returns its address; the server is shut down
// when the test ends.
func startTestDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	srv := &dns.Server{PacketConn: conn, Handler: handler}
	go srv.ActivateAndServe()
	t.Cleanup(func() { srv.Shutdown() })

	return conn.LocalAddr().String()
}

func TestDnsResolverForward(t *testing.T) {
	addr := startTestDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		msg := new(dns.Msg)
		msg.SetReply(req)
		switch req.Question[0].Qtype {
		case dns.TypeA:
			rr, _ := dns.NewRR(req.Question[0].Name + " 60 IN A 10.0.0.1")
			msg.Answer = append(msg.Answer, rr)
		case dns.TypeAAAA:
			rr, _ := dns.NewRR(req.Question[0].Name + " 60 IN AAAA ::1")
			msg.Answer = append(msg.Answer, rr)
		}
		w.WriteMsg(msg)
	})

	r := (&DnsResolver{client: new(dns.Client), servers: []string{addr}}).WithForward(true)
	tg, err := target.Parse("dns://example.com:22")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 2 {
		t.Fatalf("ResolveSet len = %d, want 2", set.Len())
	}
	for _, child := range set.Slice() {
		if port, ok := child.Port(); !ok || port != 22 {
			t.Errorf("child %v Port() = %d, %v, want 22, true", child, port, ok)
		}
	}
}

func TestDnsResolverReverse(t *testing.T) {
	addr := startTestDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		msg := new(dns.Msg)
		msg.SetReply(req)
		rr, _ := dns.NewRR(req.Question[0].Name + " 60 IN PTR host.example.com.")
		msg.Answer = append(msg.Answer, rr)
		w.WriteMsg(msg)
	})

	r := (&DnsResolver{client: new(dns.Client), servers: []string{addr}}).WithReverse(true)
	tg, err := target.Parse("127.0.0.1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 1 {
		t.Fatalf("ResolveSet len = %d, want 1", set.Len())
	}
	for _, child := range set.Slice() {
		domain, ok := child.Domain()
		if !ok || domain != "host.example.com" {
			t.Errorf("Domain() = %q, %v, want host.example.com, true", domain, ok)
		}
	}
}

func TestDnsResolverDisabledDirectionsYieldNothing(t *testing.T) {
	r := &DnsResolver{client: new(dns.Client), servers: []string{"127.0.0.1:1"}}

	forward, err := target.Parse("dns://example.com")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if set := ResolveSet(context.Background(), r, forward); set.Len() != 0 {
		t.Errorf("forward disabled: ResolveSet len = %d, want 0", set.Len())
	}

	reverse, err := target.Parse("127.0.0.1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if set := ResolveSet(context.Background(), r, reverse); set.Len() != 0 {
		t.Errorf("reverse disabled: ResolveSet len = %d, want 0", set.Len())
	}
}

func TestDnsResolverExchangeFallsBackAcrossServers(t *testing.T) {
	good := startTestDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		msg := new(dns.Msg)
		msg.SetReply(req)
		rr, _ := dns.NewRR(req.Question[0].Name + " 60 IN A 192.0.2.1")
		msg.Answer = append(msg.Answer, rr)
		w.WriteMsg(msg)
	})

	// An address nothing is listening on; ExchangeContext against it
	// should fail quickly and fall through to the working server.
	dead := "127.0.0.1:1"

	r := (&DnsResolver{client: &dns.Client{Timeout: 500 * time.Millisecond}, servers: []string{dead, good}}).WithForward(true)
	tg, err := target.Parse("dns://example.com")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	set := ResolveSet(context.Background(), r, tg)
	if set.Len() != 1 {
		t.Fatalf("ResolveSet len = %d, want 1", set.Len())
	}
}

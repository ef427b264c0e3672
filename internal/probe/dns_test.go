package probe

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/hamed0406/uptimatum/internal/domain"
)

// startDNS runs an in-process UDP nameserver for a few fixed names.
func startDNS(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	handler := func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		switch q.Name {
		case "ok.test.":
			if q.Qtype == dns.TypeA {
				rr, _ := dns.NewRR("ok.test. 60 IN A 192.0.2.10")
				m.Answer = append(m.Answer, rr)
			}
		case "noaddr.test.":
			// NOERROR, empty answer
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	}
	srv := &dns.Server{PacketConn: pc, Handler: dns.HandlerFunc(handler)}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestResolver_Classify(t *testing.T) {
	r, err := NewResolver(startDNS(t), time.Second)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	cases := map[string]DNSClass{
		"ok.test":      DNSResolves,
		"noaddr.test":  DNSNoAddress,
		"missing.test": DNSNXDomain,
		"192.0.2.1":    DNSResolves,
		"":             DNSInvalidName,
	}
	for host, want := range cases {
		if got := r.Classify(context.Background(), host); got != want {
			t.Fatalf("Classify(%q)=%s want %s", host, got, want)
		}
	}
}

func TestResolver_UnreachableServer(t *testing.T) {
	// nothing listens here; the query times out
	pc, _ := net.ListenPacket("udp", "127.0.0.1:0")
	addr := pc.LocalAddr().String()
	pc.Close()

	r, _ := NewResolver(addr, 200*time.Millisecond)
	if got := r.Classify(context.Background(), "ok.test"); got != DNSServFail {
		t.Fatalf("want %s, got %s", DNSServFail, got)
	}
}

type stubChecker struct{ res domain.CheckResult }

func (s stubChecker) Check(context.Context, domain.Endpoint) domain.CheckResult { return s.res }

func TestDNSDiagnosing_AnnotatesDownResults(t *testing.T) {
	r, _ := NewResolver(startDNS(t), time.Second)
	msg := "dial tcp: lookup missing.test: no such host"
	down := domain.CheckResult{Status: domain.StatusDown, ResponseTimeMS: 4, Error: &msg}

	d := &DNSDiagnosing{Inner: stubChecker{down}, Resolver: r}
	got := d.Check(context.Background(), domain.Endpoint{URL: "https://missing.test/health"})
	if got.Error == nil || !strings.HasSuffix(*got.Error, "(dns: NXDOMAIN)") {
		t.Fatalf("error not annotated: %v", got.Error)
	}
	if got.Status != domain.StatusDown || got.ResponseTimeMS != 4 {
		t.Fatalf("status/timing changed: %+v", got)
	}
	if *down.Error != msg {
		t.Fatalf("inner result mutated")
	}

	// resolvable hosts keep the probe error as is
	got = d.Check(context.Background(), domain.Endpoint{URL: "https://ok.test"})
	if *got.Error != msg {
		t.Fatalf("unexpected annotation: %s", *got.Error)
	}

	// non-down results skip the lookup entirely
	code := 500
	degraded := domain.CheckResult{Status: domain.StatusDegraded, StatusCode: &code}
	d.Inner = stubChecker{degraded}
	if got := d.Check(context.Background(), domain.Endpoint{URL: "https://missing.test"}); got.Error != nil {
		t.Fatalf("degraded result should be untouched: %+v", got)
	}
}

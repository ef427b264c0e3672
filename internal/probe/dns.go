package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/hamed0406/uptimatum/internal/domain"
)

type DNSClass string

const (
	DNSResolves    DNSClass = "RESOLVES"
	DNSNXDomain    DNSClass = "NXDOMAIN"
	DNSNoAddress   DNSClass = "NO_A_RECORD"
	DNSServFail    DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName DNSClass = "INVALID_NAME"
)

const DefaultDNSLimit = 3 * time.Second

// Resolver classifies how a hostname resolves by querying A and AAAA
// records directly, so an outage can be told apart from a DNS problem.
type Resolver struct {
	Servers []string // host:port, tried in order
	Client  *dns.Client
}

// NewResolver queries server, or the nameservers of /etc/resolv.conf when
// server is empty.
func NewResolver(server string, timeout time.Duration) (*Resolver, error) {
	if timeout <= 0 {
		timeout = DefaultDNSLimit
	}
	r := &Resolver{Client: &dns.Client{Timeout: timeout}}
	if server != "" {
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		r.Servers = []string{server}
		return r, nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("dns resolver: %w", err)
	}
	for _, s := range conf.Servers {
		r.Servers = append(r.Servers, net.JoinHostPort(s, conf.Port))
	}
	if len(r.Servers) == 0 {
		return nil, errors.New("dns resolver: no nameservers configured")
	}
	return r, nil
}

func (r *Resolver) Classify(ctx context.Context, host string) DNSClass {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" || strings.Contains(host, "://") {
		return DNSInvalidName
	}
	if net.ParseIP(host) != nil {
		return DNSResolves
	}

	answered := false
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := r.exchange(ctx, host, qtype)
		if err != nil {
			continue
		}
		switch resp.Rcode {
		case dns.RcodeNameError:
			return DNSNXDomain
		case dns.RcodeSuccess:
			answered = true
			for _, rr := range resp.Answer {
				switch rr.(type) {
				case *dns.A, *dns.AAAA:
					return DNSResolves
				}
			}
		}
	}
	if answered {
		return DNSNoAddress
	}
	return DNSServFail
}

func (r *Resolver) exchange(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, s := range r.Servers {
		resp, _, err := r.Client.ExchangeContext(ctx, msg, s)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no nameservers")
	}
	return nil, lastErr
}

// DNSDiagnosing decorates a Checker: when a probe reports down, the
// endpoint's host is classified and anything other than a clean resolution
// is appended to the result's error. Status and timing are left untouched.
type DNSDiagnosing struct {
	Inner    Checker
	Resolver *Resolver
	Timeout  time.Duration
}

func (d *DNSDiagnosing) Check(ctx context.Context, ep domain.Endpoint) domain.CheckResult {
	res := d.Inner.Check(ctx, ep)
	if res.Status != domain.StatusDown || res.Error == nil || d.Resolver == nil {
		return res
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDNSLimit
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	class := d.Resolver.Classify(cctx, hostOf(ep.URL))
	if class == DNSResolves {
		return res
	}
	msg := fmt.Sprintf("%s (dns: %s)", *res.Error, class)
	res.Error = &msg
	return res
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

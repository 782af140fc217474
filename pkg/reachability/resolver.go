package reachability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs reverse lookups. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// ErrNoName is returned when a lookup succeeds without any PTR record
var ErrNoName = errors.New("no PTR record")

// DNSResolver sends PTR queries straight to one DNS server
type DNSResolver struct {
	client *dns.Client
	server string
}

// NewDNSResolver creates a resolver for server ("host" or "host:port")
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSResolver{
		client: &dns.Client{Net: "udp", Timeout: timeout},
		server: server,
	}
}

// LookupAddr returns the PTR names for addr
func (r *DNSResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	arpa, err := dns.ReverseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", addr, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("PTR query to %s failed: %w", r.server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("PTR query for %s: %s", addr, dns.RcodeToString[in.Rcode])
	}

	var names []string
	for _, rr := range in.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoName
	}
	return names, nil
}

// lookupName returns the first name resolver reports for ip, without the
// trailing dot
func lookupName(ctx context.Context, resolver Resolver, ip string) (string, error) {
	names, err := resolver.LookupAddr(ctx, ip)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if name = strings.TrimSuffix(name, "."); name != "" {
			return name, nil
		}
	}
	return "", ErrNoName
}

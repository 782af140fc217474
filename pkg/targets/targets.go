package targets

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/projectdiscovery/mapcidr"
	sliceutil "github.com/projectdiscovery/utils/slice"
)

// HostRange builds prefix.first .. prefix.last for an IPv4 prefix such as
// "192.168.38" (a trailing dot is accepted)
func HostRange(prefix string, first, last int) ([]string, error) {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	octets := strings.Split(prefix, ".")
	if len(octets) != 3 {
		return nil, fmt.Errorf("invalid subnet prefix %q: want three octets", prefix)
	}
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("invalid subnet prefix %q: bad octet %q", prefix, octet)
		}
	}
	if first < 0 || last > 255 || first > last {
		return nil, fmt.Errorf("invalid host range %d-%d", first, last)
	}

	ips := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		ips = append(ips, prefix+"."+strconv.Itoa(i))
	}
	return ips, nil
}

// Expand turns CIDRs and individual IPs into a deduplicated candidate list.
// Only IPv4 host addresses of a CIDR are kept, see IsHostAddress.
func Expand(targets []string) ([]string, error) {
	var ips []string

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}

		// Try to parse as CIDR first
		if _, network, err := net.ParseCIDR(target); err == nil {
			expanded, err := expandNetwork(network)
			if err != nil {
				return nil, err
			}
			ips = append(ips, expanded...)
			continue
		}

		if ip := net.ParseIP(target); ip != nil {
			ips = append(ips, ip.String())
			continue
		}

		return nil, fmt.Errorf("invalid target format: %s (must be CIDR or IP)", target)
	}

	return sliceutil.Dedupe(ips), nil
}

// ExpandNetworks expands already-parsed networks, as returned by LocalNetworks24
func ExpandNetworks(networks []*net.IPNet) ([]string, error) {
	var ips []string
	for _, network := range networks {
		expanded, err := expandNetwork(network)
		if err != nil {
			return nil, err
		}
		ips = append(ips, expanded...)
	}
	return sliceutil.Dedupe(ips), nil
}

func expandNetwork(network *net.IPNet) ([]string, error) {
	cidr := network.String()
	all, err := mapcidr.IPAddresses(cidr)
	if err != nil {
		return nil, fmt.Errorf("failed to expand CIDR %s: %w", cidr, err)
	}

	usable := make([]string, 0, len(all))
	for _, ipStr := range all {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			continue
		}
		if !IsHostAddress(ip, network) {
			continue
		}
		usable = append(usable, ip.String())
	}
	return usable, nil
}

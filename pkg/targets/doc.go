// Package targets builds the candidate address lists scanned by the finder,
// prober and sweeper tools.
//
// Candidates can come from:
//   - a subnet prefix and host index bounds (HostRange)
//   - CIDRs and single IPs (Expand)
//   - the host's own private networks, as /24 ranges (LocalNetworks24)
//
// Every builder returns each address at most once, in a stable order.
// Prioritize reorders a list so that addresses most likely to be online
// (gateways, early DHCP leases) come first.
//
// Example usage:
//
//	ips, err := targets.HostRange("192.168.38", 1, 254)
//
//	ips, err := targets.Expand([]string{"192.168.38.0/24", "10.0.0.7"})
//	ips = targets.Prioritize(ips)
package targets

package targets

import (
	"net"
	"sort"
)

// Priority tiers based on how home routers usually hand out addresses
const (
	PriorityTier1 = 100 // .1, .254 (routers/gateways)
	PriorityTier2 = 90  // .2-.5, .250-.253 (reserved)
	PriorityTier3 = 80  // .6-.10 (early DHCP)
	PriorityTier4 = 70  // .50, .100, .150 (DHCP peaks)
	PriorityTier5 = 50  // .51-.99, .101-.149, .151-.200 (DHCP pool)
	PriorityTier6 = 20  // .11-.49, .201-.249 (long-tail)
	PriorityTier7 = 0   // .0, .255 (excluded)
)

type octetRange struct {
	start, end int
	priority   int
}

var octetRanges = []octetRange{
	{1, 1, PriorityTier1},
	{254, 254, PriorityTier1},
	{2, 5, PriorityTier2},
	{250, 253, PriorityTier2},
	{6, 10, PriorityTier3},
	{50, 50, PriorityTier4},
	{100, 100, PriorityTier4},
	{150, 150, PriorityTier4},
	{51, 99, PriorityTier5},
	{101, 149, PriorityTier5},
	{151, 200, PriorityTier5},
	{11, 49, PriorityTier6},
	{201, 249, PriorityTier6},
	{0, 0, PriorityTier7},
	{255, 255, PriorityTier7},
}

// Priority scores an address (0-100). Higher means more likely to be online.
// Non-IPv4 and unparsable addresses get the long-tail score.
func Priority(ipStr string) int {
	ip4 := net.ParseIP(ipStr).To4()
	if ip4 == nil {
		return PriorityTier6
	}

	lastOctet := int(ip4[3])
	for _, r := range octetRanges {
		if lastOctet >= r.start && lastOctet <= r.end {
			return r.priority
		}
	}
	return PriorityTier6
}

// Prioritize returns a copy of ips ordered by descending Priority. Addresses
// with equal priority keep their relative order.
func Prioritize(ips []string) []string {
	ordered := make([]string, len(ips))
	copy(ordered, ips)

	sort.SliceStable(ordered, func(i, j int) bool {
		return Priority(ordered[i]) > Priority(ordered[j])
	})
	return ordered
}

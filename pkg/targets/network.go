package targets

import (
	"encoding/binary"
	"net"
)

// IsHostAddress reports whether ip is an assignable IPv4 host of network.
// The network and broadcast addresses are excluded, except in /31 and /32
// networks where every address is a host.
func IsHostAddress(ip net.IP, network *net.IPNet) bool {
	if network == nil {
		return false
	}
	ip4, base := ip.To4(), network.IP.To4()
	if ip4 == nil || base == nil || !network.Contains(ip4) {
		return false
	}

	ones, bits := network.Mask.Size()
	if bits != 32 || ones >= 31 {
		return bits == 32
	}

	addr := binary.BigEndian.Uint32(ip4)
	first := binary.BigEndian.Uint32(base)
	last := first | ^binary.BigEndian.Uint32(network.Mask)
	return addr != first && addr != last
}

// LocalNetworks24 returns the private IPv4 networks of all up, non-loopback
// interfaces as /24 ranges
func LocalNetworks24() ([]*net.IPNet, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var networks []*net.IPNet
	seen := make(map[string]struct{})

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			network := To24(ipNet.IP)
			if network == nil {
				continue
			}

			key := network.String()
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			networks = append(networks, network)
		}
	}

	return networks, nil
}

// To24 returns the /24 network containing ip, or nil when ip is not a
// private IPv4 address
func To24(ip net.IP) *net.IPNet {
	ip4 := ip.To4()
	if ip4 == nil || !ip4.IsPrivate() {
		return nil
	}
	mask24 := net.CIDRMask(24, 32)
	return &net.IPNet{
		IP:   ip4.Mask(mask24),
		Mask: mask24,
	}
}

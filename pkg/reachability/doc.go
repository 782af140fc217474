// Package reachability sweeps a list of addresses with ICMP echo requests
// and names the hosts that answer using reverse DNS.
//
// The sweep is performed by:
//   - Running one unit of work per address through an adaptive waitgroup
//     bounded to Options.Workers
//   - Sending a single ICMP echo per address over one shared socket, with a
//     receiver goroutine matching replies by sequence number and peer
//   - Resolving the name of every host that answered, falling back to a
//     placeholder label when the lookup fails
//
// Sweep returns only after every unit of work has finished.
//
// Example usage:
//
//	pinger, err := reachability.NewICMPPinger()
//	if err != nil {
//		return err
//	}
//	defer pinger.Close()
//
//	sweeper := reachability.New(pinger, net.DefaultResolver, reachability.DefaultOptions)
//	results, err := sweeper.Sweep(ctx, ips, func(r types.ReachResult) {
//		fmt.Println(r.IP, r.Hostname)
//	})
//
// Privilege Requirements:
//   - Raw ICMP sockets require root/admin privileges on most systems
//   - On Linux and macOS NewICMPPinger falls back to unprivileged datagram
//     ICMP sockets (Linux needs net.ipv4.ping_group_range to cover the user)
//
// Limitations:
//   - Hosts with ICMP disabled or firewalled are reported as timing out
//   - IPv4 only
package reachability

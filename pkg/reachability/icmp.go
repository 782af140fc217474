package reachability

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	mapsutil "github.com/projectdiscovery/utils/maps"
	osutils "github.com/projectdiscovery/utils/os"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

var (
	// ErrTimeout is returned when no reply arrives before the deadline
	ErrTimeout = errors.New("echo request timed out")
	// ErrUnreachable is returned when the network reports the host unreachable
	ErrUnreachable = errors.New("destination unreachable")
	// ErrClosed is returned by Ping after Close
	ErrClosed = errors.New("pinger closed")
)

var echoPayload = []byte("lanfinder-reachability")

// reply is delivered to a waiting Ping by the receiver
type reply struct {
	at  time.Time
	err error
}

// pendingPing tracks a sent echo waiting for its reply
type pendingPing struct {
	IP    net.IP
	Start time.Time
	reply chan reply
}

// ICMPPinger sends ICMP echo requests over a single shared socket. It is
// safe for concurrent use.
type ICMPPinger struct {
	conn       *icmp.PacketConn
	privileged bool
	id         int

	mu  sync.Mutex
	seq int

	pending *mapsutil.SyncLockMap[int, *pendingPing]

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewICMPPinger opens a raw ICMP socket, falling back to an unprivileged
// datagram socket on Linux and macOS
func NewICMPPinger() (*ICMPPinger, error) {
	conn, privileged, err := openConn(icmp.ListenPacket, osutils.IsLinux() || osutils.IsOSX())
	if err != nil {
		return nil, err
	}

	p := &ICMPPinger{
		conn:       conn,
		privileged: privileged,
		id:         os.Getpid() & 0xffff,
		pending:    mapsutil.NewSyncLockMap[int, *pendingPing](),
		done:       make(chan struct{}),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.receive()
	}()
	return p, nil
}

type listenFunc func(network, address string) (*icmp.PacketConn, error)

// openConn opens the raw socket, or the datagram socket when fallback is set
// and the raw one is refused. It reports whether the raw socket is in use.
func openConn(listen listenFunc, fallback bool) (*icmp.PacketConn, bool, error) {
	conn, err := listen("ip4:icmp", "0.0.0.0")
	if err == nil {
		return conn, true, nil
	}
	if !fallback {
		return nil, false, fmt.Errorf("failed to create ICMP connection: %w", err)
	}

	conn, udpErr := listen("udp4", "0.0.0.0")
	if udpErr != nil {
		return nil, false, fmt.Errorf("failed to create ICMP connection: %w", errors.Join(
			fmt.Errorf("raw socket: %w", err),
			fmt.Errorf("unprivileged socket: %w", udpErr),
		))
	}
	return conn, false, nil
}

// Privileged reports whether a raw socket is in use
func (p *ICMPPinger) Privileged() bool {
	return p.privileged
}

// Close stops the receiver and releases the socket
func (p *ICMPPinger) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
		p.wg.Wait()
	})
	return err
}

// Ping sends one echo request to ip and waits up to timeout for the reply,
// returning the round-trip time
func (p *ICMPPinger) Ping(ctx context.Context, ip net.IP, timeout time.Duration) (time.Duration, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("not an IPv4 address: %s", ip)
	}

	select {
	case <-p.done:
		return 0, ErrClosed
	default:
	}

	seq := p.nextSeq()
	pending := &pendingPing{
		IP:    ip4,
		Start: time.Now(),
		reply: make(chan reply, 1),
	}
	_ = p.pending.Set(seq, pending)
	defer p.pending.Delete(seq)

	if err := p.send(ip4, seq); err != nil {
		return 0, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-pending.reply:
		if r.err != nil {
			return 0, r.err
		}
		return r.at.Sub(pending.Start), nil
	case <-timer.C:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-p.done:
		return 0, ErrClosed
	}
}

func (p *ICMPPinger) nextSeq() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq = (p.seq + 1) & 0xffff
	return p.seq
}

// send writes an echo request through the shared connection
func (p *ICMPPinger) send(ip net.IP, seq int) error {
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: echoPayload,
		},
	}

	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("failed to marshal ICMP message: %w", err)
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if !p.privileged {
		dst = &net.UDPAddr{IP: ip}
	}
	if _, err := p.conn.WriteTo(msgBytes, dst); err != nil {
		return fmt.Errorf("failed to send echo request: %w", err)
	}
	return nil
}

// receive matches echo replies and unreachable errors to pending pings
// until the pinger is closed
func (p *ICMPPinger) receive() {
	protocol := ipv4.ICMPTypeEchoReply.Protocol()
	buf := make([]byte, 1500)

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if err := p.conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond)); err != nil {
			return
		}
		n, peer, err := p.conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		at := time.Now()

		msg, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil {
			continue
		}

		switch msg.Type {
		case ipv4.ICMPTypeEchoReply:
			echo, ok := msg.Body.(*icmp.Echo)
			if !ok {
				continue
			}
			// datagram sockets rewrite the echo ID, only raw replies carry ours
			if p.privileged && echo.ID != p.id {
				continue
			}
			pending, exists := p.pending.Get(echo.Seq)
			if !exists || !peerIP(peer).Equal(pending.IP) {
				continue
			}
			deliver(pending, reply{at: at})

		case ipv4.ICMPTypeDestinationUnreachable:
			body, ok := msg.Body.(*icmp.DstUnreach)
			if !ok {
				continue
			}
			dst, id, seq, ok := quotedEcho(body.Data)
			if !ok || (p.privileged && id != p.id) {
				continue
			}
			pending, exists := p.pending.Get(seq)
			if !exists || !dst.Equal(pending.IP) {
				continue
			}
			deliver(pending, reply{at: at, err: ErrUnreachable})
		}
	}
}

func deliver(pending *pendingPing, r reply) {
	select {
	case pending.reply <- r:
	default:
	}
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}

// quotedEcho extracts the destination, echo ID and sequence from the IPv4
// header and ICMP header quoted in an error message
func quotedEcho(data []byte) (net.IP, int, int, bool) {
	if len(data) < ipv4.HeaderLen {
		return nil, 0, 0, false
	}
	ihl := int(data[0]&0x0f) * 4
	if ihl < ipv4.HeaderLen || len(data) < ihl+8 {
		return nil, 0, 0, false
	}
	dst := net.IPv4(data[16], data[17], data[18], data[19])
	quoted := data[ihl:]
	if quoted[0] != byte(ipv4.ICMPTypeEcho) {
		return nil, 0, 0, false
	}
	id := int(binary.BigEndian.Uint16(quoted[4:6]))
	seq := int(binary.BigEndian.Uint16(quoted[6:8]))
	return dst, id, seq, true
}

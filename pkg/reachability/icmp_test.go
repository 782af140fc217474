package reachability

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"golang.org/x/net/icmp"
)

func newTestPinger(t *testing.T) *ICMPPinger {
	t.Helper()

	pinger, err := NewICMPPinger()
	if err != nil {
		t.Skipf("no ICMP socket available: %v", err)
	}
	t.Cleanup(func() {
		_ = pinger.Close()
	})
	return pinger
}

func TestICMPPingerLoopback(t *testing.T) {
	pinger := newTestPinger(t)

	for i := 0; i < 3; i++ {
		rtt, err := pinger.Ping(context.Background(), net.IPv4(127, 0, 0, 1), time.Second)
		if err != nil {
			t.Fatalf("Ping(127.0.0.1) error = %v (privileged=%v)", err, pinger.Privileged())
		}
		if rtt <= 0 {
			t.Errorf("Ping(127.0.0.1) rtt = %s, want positive", rtt)
		}
	}
}

func TestICMPPingerConcurrent(t *testing.T) {
	pinger := newTestPinger(t)

	errs := make(chan error, 8)
	for i := 0; i < cap(errs); i++ {
		go func() {
			_, err := pinger.Ping(context.Background(), net.IPv4(127, 0, 0, 1), time.Second)
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		if err := <-errs; err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	}
}

func TestICMPPingerTimeout(t *testing.T) {
	pinger := newTestPinger(t)

	// 192.0.2.0/24 is TEST-NET-1 and never answers
	_, err := pinger.Ping(context.Background(), net.IPv4(192, 0, 2, 1), 50*time.Millisecond)
	var opErr *net.OpError
	switch {
	case errors.As(err, &opErr):
		t.Skipf("no route to TEST-NET-1: %v", err)
	case errors.Is(err, ErrUnreachable):
		t.Skip("network reports TEST-NET-1 unreachable")
	case !errors.Is(err, ErrTimeout):
		t.Errorf("Ping(192.0.2.1) error = %v, want %v", err, ErrTimeout)
	}
}

func TestICMPPingerCanceled(t *testing.T) {
	pinger := newTestPinger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pinger.Ping(ctx, net.IPv4(192, 0, 2, 1), time.Second); err != nil && !errors.Is(err, context.Canceled) {
		var opErr *net.OpError
		if !errors.As(err, &opErr) {
			t.Errorf("Ping() error = %v, want %v", err, context.Canceled)
		}
	}
}

func TestICMPPingerClosed(t *testing.T) {
	pinger := newTestPinger(t)

	if err := pinger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := pinger.Ping(context.Background(), net.IPv4(127, 0, 0, 1), time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close error = %v, want %v", err, ErrClosed)
	}
	if err := pinger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestICMPPingerRejectsIPv6(t *testing.T) {
	pinger := newTestPinger(t)

	if _, err := pinger.Ping(context.Background(), net.ParseIP("::1"), time.Second); err == nil {
		t.Error("Ping(::1) succeeded on an IPv4 pinger")
	}
}

func TestOpenConn(t *testing.T) {
	errRaw := errors.New("operation not permitted")
	errUDP := errors.New("permission denied")

	tests := []struct {
		name           string
		raw, udp       error
		fallback       bool
		wantPrivileged bool
		wantErrs       []error
	}{
		{name: "raw socket", fallback: true, wantPrivileged: true},
		{name: "unprivileged fallback", raw: errRaw, fallback: true},
		{name: "no fallback", raw: errRaw, udp: nil, fallback: false, wantErrs: []error{errRaw}},
		{name: "both refused", raw: errRaw, udp: errUDP, fallback: true, wantErrs: []error{errRaw, errUDP}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []string
			listen := func(network, address string) (*icmp.PacketConn, error) {
				opened = append(opened, network)
				if network == "ip4:icmp" {
					return nil, tt.raw
				}
				return nil, tt.udp
			}

			_, privileged, err := openConn(listen, tt.fallback)
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("openConn() error = %v", err)
				}
				if privileged != tt.wantPrivileged {
					t.Errorf("privileged = %v, want %v", privileged, tt.wantPrivileged)
				}
				return
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("openConn() error = %v, want it to wrap %v", err, want)
				}
			}
			if !tt.fallback && len(opened) != 1 {
				t.Errorf("opened %v, want only the raw socket", opened)
			}
		})
	}
}

// Package testutil fakes a small LAN of web servers for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ErrRefused is returned when dialing an address with no fake host behind it
var ErrRefused = errors.New("connection refused")

// LAN routes dials for ip:port to in-process httptest servers
type LAN struct {
	mu     sync.Mutex
	routes map[string]string
	dials  map[string]int
}

// NewLAN starts one httptest server per entry of hosts (keyed by IP) and
// makes them reachable as ip:port through Client
func NewLAN(t testing.TB, port int, hosts map[string]http.Handler) *LAN {
	t.Helper()

	lan := &LAN{
		routes: make(map[string]string),
		dials:  make(map[string]int),
	}
	for ip, handler := range hosts {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		lan.routes[net.JoinHostPort(ip, fmt.Sprint(port))] = srv.Listener.Addr().String()
	}
	return lan
}

// Client returns an HTTP client whose dials go through the fake LAN
func (l *LAN) Client() *http.Client {
	dialer := &net.Dialer{}
	return &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives: true,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, _ := net.SplitHostPort(addr)

				l.mu.Lock()
				l.dials[host]++
				target, ok := l.routes[addr]
				l.mu.Unlock()

				if !ok {
					return nil, &net.OpError{Op: "dial", Net: network, Err: ErrRefused}
				}
				return dialer.DialContext(ctx, network, target)
			},
		},
	}
}

// Dials returns how many connections were attempted to ip
func (l *LAN) Dials(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dials[ip]
}

// Page serves body with status for every request
func Page(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// Hang never answers; the request ends when the client gives up
func Hang() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
}

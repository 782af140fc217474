package listprobe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/projectdiscovery/lanfinder/internal/testutil"
	"github.com/projectdiscovery/lanfinder/pkg/httpprobe"
	"github.com/projectdiscovery/lanfinder/pkg/marker"
	"github.com/projectdiscovery/lanfinder/pkg/types"
)

func TestRunVisitsEveryAddressOnce(t *testing.T) {
	lan := testutil.NewLAN(t, 80, map[string]http.Handler{
		"192.168.38.1":   testutil.Page(http.StatusOK, "<html><title>Router</title></html>"),
		"192.168.38.157": testutil.Page(http.StatusOK, "<html>Växthus Control</html>"),
		"192.168.38.184": testutil.Page(http.StatusInternalServerError, "oops"),
		"192.168.38.202": testutil.Hang(),
	})
	m, err := marker.New(marker.DefaultMarkers, marker.Options{})
	if err != nil {
		t.Fatalf("marker.New() error = %v", err)
	}
	options := httpprobe.DefaultOptions
	options.Timeout = 100 * time.Millisecond
	prober := httpprobe.New(lan.Client(), m, options)

	var order []string
	results, err := Run(context.Background(), prober, DefaultAddresses, func(r types.ProbeResult) {
		order = append(order, r.IP)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(results) != len(DefaultAddresses) {
		t.Fatalf("Run() returned %d results, want %d", len(results), len(DefaultAddresses))
	}
	for i, ip := range DefaultAddresses {
		if order[i] != ip || results[i].IP != ip {
			t.Errorf("position %d: callback %s, result %s, want %s", i, order[i], results[i].IP, ip)
		}
		if n := lan.Dials(ip); n != 1 {
			t.Errorf("%s dialed %d times, want 1", ip, n)
		}
	}

	want := map[string]types.Outcome{
		"192.168.38.1":   types.NoMatch,
		"192.168.38.127": types.ConnectionFailed,
		"192.168.38.157": types.Matched,
		"192.168.38.184": types.BadStatus,
		"192.168.38.202": types.Timeout,
		"192.168.38.229": types.ConnectionFailed,
		"192.168.38.237": types.ConnectionFailed,
	}
	for _, r := range results {
		if r.Outcome != want[r.IP] {
			t.Errorf("%s outcome = %s, want %s", r.IP, r.Outcome, want[r.IP])
		}
	}

	matches := Matches(results)
	if len(matches) != 1 || matches[0].IP != "192.168.38.157" {
		t.Errorf("Matches() = %+v, want only 192.168.38.157", matches)
	}
}

type countingProber struct {
	calls int
}

func (c *countingProber) Probe(ctx context.Context, ip string) types.ProbeResult {
	c.calls++
	return types.ProbeResult{IP: ip, Outcome: types.ConnectionFailed}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := &countingProber{}
	results, err := Run(ctx, prober, DefaultAddresses, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
	if len(results) != 0 || prober.calls != 0 {
		t.Errorf("Run() probed %d addresses after cancellation", prober.calls)
	}
}

func TestMatchesEmpty(t *testing.T) {
	if got := Matches(nil); got != nil {
		t.Errorf("Matches(nil) = %v, want nil", got)
	}
}

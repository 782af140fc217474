package httpprobe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/projectdiscovery/lanfinder/internal/testutil"
	"github.com/projectdiscovery/lanfinder/pkg/marker"
	"github.com/projectdiscovery/lanfinder/pkg/types"
)

func newTestProber(t *testing.T, hosts map[string]http.Handler, timeout time.Duration) *Prober {
	t.Helper()

	m, err := marker.New(marker.DefaultMarkers, marker.Options{})
	if err != nil {
		t.Fatalf("marker.New() error = %v", err)
	}
	lan := testutil.NewLAN(t, 80, hosts)
	options := DefaultOptions
	options.Timeout = timeout
	return New(lan.Client(), m, options)
}

func TestProbe(t *testing.T) {
	hosts := map[string]http.Handler{
		"192.168.38.157": testutil.Page(http.StatusOK, "<html><head><title> Växtljus Master </title></head>Växthus Control</html>"),
		"192.168.38.1":   testutil.Page(http.StatusOK, "<html><title>Router</title>login</html>"),
		"192.168.38.184": testutil.Page(http.StatusNotFound, "Växthus"),
		"192.168.38.202": testutil.Hang(),
	}
	p := newTestProber(t, hosts, 200*time.Millisecond)

	tests := []struct {
		ip         string
		want       types.Outcome
		wantStatus int
		wantTitle  string
	}{
		{ip: "192.168.38.157", want: types.Matched, wantStatus: 200, wantTitle: "Växtljus Master"},
		{ip: "192.168.38.1", want: types.NoMatch, wantStatus: 200, wantTitle: "Router"},
		{ip: "192.168.38.184", want: types.BadStatus, wantStatus: 404},
		{ip: "192.168.38.202", want: types.Timeout},
		{ip: "192.168.38.229", want: types.ConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			result := p.Probe(context.Background(), tt.ip)
			if result.IP != tt.ip {
				t.Errorf("IP = %s, want %s", result.IP, tt.ip)
			}
			if result.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s (error: %s)", result.Outcome, tt.want, result.Error)
			}
			if result.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tt.wantStatus)
			}
			if result.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", result.Title, tt.wantTitle)
			}
			if result.Duration <= 0 {
				t.Error("Duration not recorded")
			}
		})
	}
}

func TestProbeCanceled(t *testing.T) {
	p := newTestProber(t, map[string]http.Handler{
		"192.168.38.157": testutil.Hang(),
	}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Probe(ctx, "192.168.38.157")
	if result.Outcome != types.Canceled {
		t.Errorf("Outcome = %s, want %s", result.Outcome, types.Canceled)
	}
}

func TestProbePreview(t *testing.T) {
	body := "<html>" + string(make([]byte, 300)) + "</html>"
	p := newTestProber(t, map[string]http.Handler{
		"10.0.0.2": testutil.Page(http.StatusOK, body),
	}, time.Second)

	result := p.Probe(context.Background(), "10.0.0.2")
	if len([]rune(result.Preview)) != DefaultOptions.PreviewLength {
		t.Errorf("preview length = %d, want %d", len([]rune(result.Preview)), DefaultOptions.PreviewLength)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"Växthus Control", 3, "Väx"},
		{"short", 100, "short"},
		{"anything", 0, ""},
		{"", 10, ""},
	}
	for _, tt := range tests {
		if got := Preview(tt.text, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestURL(t *testing.T) {
	p := New(nil, nil, Options{Port: 8080})
	if got := p.URL("192.168.38.157", "/api/status"); got != "http://192.168.38.157:8080/api/status" {
		t.Errorf("URL() = %s", got)
	}
}

func TestStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(StatusPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"time":"21:04","manual":true,"rssi":-61,"white":255,"red":128,"uv":0,"eco":true}`))
	})
	p := newTestProber(t, map[string]http.Handler{
		"192.168.38.157": mux,
		"192.168.38.1":   testutil.Page(http.StatusOK, "<html>not json</html>"),
	}, time.Second)

	status, err := p.Status(context.Background(), "192.168.38.157")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	want := types.DeviceStatus{Time: "21:04", Manual: true, RSSI: -61, White: 255, Red: 128, UV: 0, Eco: true}
	if *status != want {
		t.Errorf("Status() = %+v, want %+v", *status, want)
	}
	if status.Mode() != "manual" {
		t.Errorf("Mode() = %s, want manual", status.Mode())
	}

	if _, err := p.Status(context.Background(), "192.168.38.1"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Status() error = %v, want %v", err, ErrInvalidStatus)
	}
	if _, err := p.Status(context.Background(), "192.168.38.99"); err == nil {
		t.Error("expected error for unreachable host")
	}
}

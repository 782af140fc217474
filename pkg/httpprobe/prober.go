// Package httpprobe fetches the index page of a candidate address and
// classifies the response against a marker.Matcher.
package httpprobe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/projectdiscovery/lanfinder/pkg/marker"
	"github.com/projectdiscovery/lanfinder/pkg/types"
)

// Options controls a Prober
type Options struct {
	Port          int
	Path          string
	Timeout       time.Duration
	MaxBodySize   int64
	PreviewLength int
}

// DefaultOptions probes http://<ip>/ with a 500ms budget
var DefaultOptions = Options{
	Port:          80,
	Path:          "/",
	Timeout:       500 * time.Millisecond,
	MaxBodySize:   1 << 20,
	PreviewLength: 100,
}

// Prober issues one HTTP GET per address
type Prober struct {
	client  *http.Client
	matcher *marker.Matcher
	options Options
}

// New creates a prober. If client is nil a client without keep-alives or
// proxying is built from options.
func New(client *http.Client, matcher *marker.Matcher, options Options) *Prober {
	if options.Port == 0 {
		options.Port = DefaultOptions.Port
	}
	if options.Path == "" {
		options.Path = DefaultOptions.Path
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions.Timeout
	}
	if options.MaxBodySize <= 0 {
		options.MaxBodySize = DefaultOptions.MaxBodySize
	}
	if options.PreviewLength < 0 {
		options.PreviewLength = 0
	}
	if client == nil {
		client = newClient(options.Timeout)
	}
	return &Prober{client: client, matcher: matcher, options: options}
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			DisableKeepAlives:     true,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}

// URL returns the address probed for ip at path
func (p *Prober) URL(ip, path string) string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(ip, strconv.Itoa(p.options.Port)),
		Path:   path,
	}
	return u.String()
}

// Probe fetches the configured page from ip. It never fails: every error is
// folded into the result's Outcome.
func (p *Prober) Probe(ctx context.Context, ip string) (result types.ProbeResult) {
	start := time.Now()
	result.IP = ip
	defer func() {
		result.Duration = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, p.options.Timeout)
	defer cancel()

	body, status, err := p.get(ctx, ip, p.options.Path)
	result.StatusCode = status
	if err != nil {
		result.Outcome = classify(err)
		result.Error = err.Error()
		return result
	}
	if status != http.StatusOK {
		result.Outcome = types.BadStatus
		return result
	}

	text := string(body)
	result.Preview = Preview(text, p.options.PreviewLength)
	result.Title = Title(body)
	if p.matcher.Match(text) {
		result.Outcome = types.Matched
	} else {
		result.Outcome = types.NoMatch
	}
	return result
}

// get returns the (size limited) body and status code of a GET request.
// A non-zero status is returned whenever headers were received.
func (p *Prober) get(ctx context.Context, ip, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(ip, path), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.options.MaxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("error reading body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func classify(err error) types.Outcome {
	if errors.Is(err, context.Canceled) {
		return types.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.Timeout
	}
	return types.ConnectionFailed
}

// Preview returns at most n runes of text
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// Title extracts the HTML <title> of a page, if any
func Title(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Package marker decides whether a page belongs to the device being searched
// for, by looking for one of a set of marker strings in it.
//
// By default text is folded before comparison: it is decomposed (NFD),
// combining marks are dropped and the result is recomposed (NFC). "Växthus",
// "Vaxthus" and a decomposed "Växthus" therefore all match one another.
// Strict matchers compare the raw bytes instead.
package marker

import (
	"errors"
	"strings"
	"unicode"

	sliceutil "github.com/projectdiscovery/utils/slice"
	stringsutil "github.com/projectdiscovery/utils/strings"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMarkers are both spellings the controller has served on its index page
var DefaultMarkers = []string{"Växthus", "Vaxthus"}

// ErrNoMarkers is returned when a matcher is built without any marker
var ErrNoMarkers = errors.New("no marker strings configured")

// Options tunes how a Matcher compares text
type Options struct {
	// Strict disables unicode folding and matches the markers literally
	Strict bool
	// IgnoreCase additionally folds case
	IgnoreCase bool
}

// Matcher checks text for any of its marker strings. It is safe for
// concurrent use.
type Matcher struct {
	options Options
	markers []string
}

// New creates a matcher for markers
func New(markers []string, options Options) (*Matcher, error) {
	m := &Matcher{options: options}

	for _, marker := range markers {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		m.markers = append(m.markers, m.fold(marker))
	}
	m.markers = sliceutil.Dedupe(m.markers)

	if len(m.markers) == 0 {
		return nil, ErrNoMarkers
	}
	return m, nil
}

// Match reports whether text contains any marker
func (m *Matcher) Match(text string) bool {
	return stringsutil.ContainsAny(m.fold(text), m.markers...)
}

// Markers returns the markers in the form they are compared in
func (m *Matcher) Markers() []string {
	out := make([]string, len(m.markers))
	copy(out, m.markers)
	return out
}

func (m *Matcher) fold(s string) string {
	if !m.options.Strict {
		// transformers carry state, build a fresh chain per call
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, s); err == nil {
			s = folded
		}
	}
	if m.options.IgnoreCase {
		s = cases.Fold().String(s)
	}
	return s
}

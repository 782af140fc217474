package runner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/lanfinder/pkg/types"
)

// OutputWriter renders results either as colored lines or as json lines
type OutputWriter struct {
	scanID string
	json   bool
	au     *aurora.Aurora
	// print receives every rendered line, gologger.Silent() unless replaced in tests
	print func(line string)
}

// jsonLine is one json output record
type jsonLine struct {
	ScanID    string    `json:"scan_id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Result    any       `json:"result"`
}

// NewOutputWriter creates an output writer for a scan
func NewOutputWriter(scanID string, jsonOutput, noColor bool) *OutputWriter {
	return &OutputWriter{
		scanID: scanID,
		json:   jsonOutput,
		au:     aurora.New(aurora.WithColors(!noColor)),
		print: func(line string) {
			gologger.Silent().Msgf("%s", line)
		},
	}
}

// Probe writes a result that did not identify the device
func (w *OutputWriter) Probe(result types.ProbeResult) {
	if w.json {
		w.writeJSON("probe", result)
		return
	}
	w.print(fmt.Sprintf("[%s] %s%s", w.outcome(result.Outcome), result.IP, w.details(result)))
}

// Found writes the address identified as the device
func (w *OutputWriter) Found(result types.ProbeResult) {
	if w.json {
		w.writeJSON("found", result)
		return
	}
	line := fmt.Sprintf("%s %s", w.au.Bold(w.au.Green("Found device at")), w.au.Bold(result.IP))
	if result.Title != "" {
		line += fmt.Sprintf(" [%s]", w.au.Cyan(result.Title))
	}
	w.print(line)
}

// ListResult writes one result of the fixed list prober: the status and
// preview of every answering page, and the outcome of every failure
func (w *OutputWriter) ListResult(result types.ProbeResult) {
	if w.json {
		w.writeJSON("probe", result)
		return
	}
	switch result.Outcome {
	case types.Matched, types.NoMatch:
		w.print(fmt.Sprintf("[%s] Response from %s%s", w.au.Green("ok"), result.IP, w.details(result)))
		w.print(result.Preview)
		if result.IsMatch() {
			w.print(fmt.Sprintf("%s %s", w.au.Bold(w.au.Green("Found target:")), w.au.Bold(result.IP)))
		}
	case types.BadStatus:
		w.print(fmt.Sprintf("[%s] %s: answered %d", w.outcome(result.Outcome), result.IP, result.StatusCode))
	default:
		w.print(fmt.Sprintf("[%s] %s: no response%s", w.outcome(result.Outcome), result.IP, w.details(result)))
	}
}

// Reach writes one reachability result
func (w *OutputWriter) Reach(result types.ReachResult) {
	if w.json {
		w.writeJSON("reach", result)
		return
	}
	line := fmt.Sprintf("[%s] %s", w.outcome(result.Outcome), result.IP)
	if result.Hostname != "" {
		line += fmt.Sprintf("\t(%s)", result.Hostname)
	}
	if result.RTT > 0 {
		line += fmt.Sprintf(" %s", w.au.Gray(12, result.RTT.Round(time.Microsecond)))
	}
	w.print(line)
}

// SweepDone writes the completion line of a sweep
func (w *OutputWriter) SweepDone(reached, total int, elapsed time.Duration) {
	if w.json {
		w.writeJSON("summary", struct {
			Reached int           `json:"reached"`
			Total   int           `json:"total"`
			Elapsed time.Duration `json:"elapsed"`
		}{Reached: reached, Total: total, Elapsed: elapsed})
		return
	}
	w.print(fmt.Sprintf("%s %d of %d addresses reached in %s",
		w.au.Bold("Scan finished:"), reached, total, elapsed.Round(time.Millisecond)))
}

// Status writes the status document of a found device
func (w *OutputWriter) Status(ip string, status *types.DeviceStatus) {
	if w.json {
		w.writeJSON("status", struct {
			IP string `json:"ip"`
			*types.DeviceStatus
		}{IP: ip, DeviceStatus: status})
		return
	}
	w.print(fmt.Sprintf("[%s] %s time=%s mode=%s eco=%s rssi=%ddBm white=%d%% red=%d%% uv=%d%%",
		w.au.Blue("status"), ip, status.Time, status.Mode(), onOff(status.Eco), status.RSSI,
		types.Percent(status.White), types.Percent(status.Red), types.Percent(status.UV)))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (w *OutputWriter) details(result types.ProbeResult) string {
	var parts []string
	if result.StatusCode != 0 {
		parts = append(parts, fmt.Sprint(result.StatusCode))
	}
	if result.Duration > 0 {
		parts = append(parts, result.Duration.Round(time.Millisecond).String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func (w *OutputWriter) outcome(outcome types.Outcome) aurora.Value {
	name := outcome.String()
	switch outcome {
	case types.Matched, types.Reached:
		return w.au.Green(name)
	case types.NoMatch, types.ResolutionFailed:
		return w.au.Yellow(name)
	case types.Canceled:
		return w.au.Gray(12, name)
	default:
		return w.au.Red(name)
	}
}

func (w *OutputWriter) writeJSON(kind string, result any) {
	data, err := json.Marshal(jsonLine{
		ScanID:    w.scanID,
		Timestamp: time.Now().UTC(),
		Type:      kind,
		Result:    result,
	})
	if err != nil {
		gologger.Error().Msgf("Could not marshal %s result: %s\n", kind, err)
		return
	}
	w.print(string(data))
}

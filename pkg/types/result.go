package types

import "time"

// ProbeResult is the outcome of one HTTP probe against a candidate address
type ProbeResult struct {
	IP         string        `json:"ip"`
	Outcome    Outcome       `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Title      string        `json:"title,omitempty"`
	Preview    string        `json:"preview,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// IsMatch reports whether the probed page carried the marker
func (r ProbeResult) IsMatch() bool {
	return r.Outcome == Matched
}

// ReachResult is the outcome of one reachability check
type ReachResult struct {
	IP       string        `json:"ip"`
	Outcome  Outcome       `json:"outcome"`
	Hostname string        `json:"hostname,omitempty"`
	RTT      time.Duration `json:"rtt,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// SetError records err on the result, if any
func (r *ReachResult) SetError(err error) {
	if err != nil {
		r.Error = err.Error()
	}
}

// DeviceStatus is the status document served by the controller at /api/status
type DeviceStatus struct {
	Time   string `json:"time"`
	Manual bool   `json:"manual"`
	RSSI   int    `json:"rssi"`
	White  int    `json:"white"`
	Red    int    `json:"red"`
	UV     int    `json:"uv"`
	Eco    bool   `json:"eco"`
}

// Mode returns the controller's control mode
func (s DeviceStatus) Mode() string {
	if s.Manual {
		return "manual"
	}
	return "auto"
}

// Percent converts a raw 0-255 PWM channel level into a percentage
func Percent(level int) int {
	if level <= 0 {
		return 0
	}
	if level >= 255 {
		return 100
	}
	return int(float64(level)/2.55 + 0.5)
}

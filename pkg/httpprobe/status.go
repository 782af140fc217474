package httpprobe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/projectdiscovery/lanfinder/pkg/types"
	"github.com/tidwall/gjson"
)

// StatusPath is where the controller serves its live status document
const StatusPath = "/api/status"

// ErrInvalidStatus is returned when the status document is not JSON
var ErrInvalidStatus = errors.New("invalid status document")

// Status fetches the controller status from ip
func (p *Prober) Status(ctx context.Context, ip string) (*types.DeviceStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.options.Timeout)
	defer cancel()

	body, status, err := p.get(ctx, ip, StatusPath)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", p.URL(ip, StatusPath), err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", status)
	}
	return ParseStatus(body)
}

// ParseStatus decodes a status document
func ParseStatus(body []byte) (*types.DeviceStatus, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidStatus
	}

	fields := gjson.GetManyBytes(body, "time", "manual", "rssi", "white", "red", "uv", "eco")
	return &types.DeviceStatus{
		Time:   fields[0].String(),
		Manual: fields[1].Bool(),
		RSSI:   int(fields[2].Int()),
		White:  int(fields[3].Int()),
		Red:    int(fields[4].Int()),
		UV:     int(fields[5].Int()),
		Eco:    fields[6].Bool(),
	}, nil
}

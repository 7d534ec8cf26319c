package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LocalLayout is the zone-less timestamp format some devices send.
const LocalLayout = "2006-01-02 15:04:05"

// topicSerialRe captures the serial segment of "<prefix>/<serial>/temperature".
var topicSerialRe = regexp.MustCompile(`^(?:[^/]+/)*([^/]+)/temperature$`)

// ID parses a positive resource identifier from a path segment.
func ID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(n), nil
}

// PositiveInt parses an optional query value. Empty or invalid input yields def.
func PositiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Timestamp accepts RFC 3339 or LocalLayout. Zone-less values are read in loc,
// which defaults to UTC.
func Timestamp(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(LocalLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q", raw)
	}
	return t, nil
}

// SerialFromTopic extracts the device serial from an MQTT topic such as
// "sensors/SN-001/temperature".
func SerialFromTopic(topic string) (string, bool) {
	m := topicSerialRe.FindStringSubmatch(topic)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

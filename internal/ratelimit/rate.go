package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type (
	// Rate is a request budget inside a fixed window, e.g. 100 requests
	// per minute.
	Rate struct {
		Limit  int64
		Window time.Duration
	}
)

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRate understands the config rate strings: "10 per minute",
// "5 per 15 minutes", "100/hour".
func ParseRate(s string) (Rate, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	var limitPart, windowPart string
	switch {
	case strings.Contains(norm, " per "):
		parts := strings.SplitN(norm, " per ", 2)
		limitPart, windowPart = parts[0], parts[1]
	case strings.Contains(norm, "/"):
		parts := strings.SplitN(norm, "/", 2)
		limitPart, windowPart = parts[0], parts[1]
	default:
		return Rate{}, fmt.Errorf("invalid rate %q, expected e.g. \"10 per minute\"", s)
	}

	limit, err := strconv.ParseInt(strings.TrimSpace(limitPart), 10, 64)
	if err != nil || limit <= 0 {
		return Rate{}, fmt.Errorf("invalid rate %q: limit must be a positive integer", s)
	}

	multiplier := int64(1)
	unitPart := strings.TrimSpace(windowPart)
	if fields := strings.Fields(unitPart); len(fields) == 2 {
		multiplier, err = strconv.ParseInt(fields[0], 10, 64)
		if err != nil || multiplier <= 0 {
			return Rate{}, fmt.Errorf("invalid rate %q: window multiplier must be a positive integer", s)
		}
		unitPart = fields[1]
	}
	unit, ok := units[strings.TrimSuffix(unitPart, "s")]
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate %q: unknown window unit %q", s, unitPart)
	}
	return Rate{Limit: limit, Window: time.Duration(multiplier) * unit}, nil
}

func (r Rate) String() string {
	return fmt.Sprintf("%d per %v", r.Limit, r.Window)
}

package connect

import (
	"strconv"
	"strings"
)

const (
	successPrefix = "SUCCESS:"
	errorPrefix   = "ERROR:"
	abandoned     = "ABANDONED"

	// DefaultErrorStatus is used when an ERROR payload carries no usable code.
	DefaultErrorStatus = 400
)

// Classify matches a normalized payload against the portal's message formats.
// Rules are checked in order: SUCCESS prefix, ERROR prefix, exact ABANDONED.
func Classify(payload string) (Event, bool) {
	switch {
	case strings.HasPrefix(payload, successPrefix):
		id := strings.TrimSpace(payload[len(successPrefix):])
		return NewSuccessEvent(id), true

	case strings.HasPrefix(payload, errorPrefix):
		code := strings.TrimSpace(payload[len(errorPrefix):])
		return NewErrorEvent(parseStatus(code), "Error with status code: "+code), true

	case payload == abandoned:
		return NewAbandonedEvent(), true
	}
	return nil, false
}

// Parse normalizes a raw envelope and classifies the result.
func Parse(raw any) (Event, bool) {
	payload, ok := Normalize(raw)
	if !ok {
		return nil, false
	}
	return Classify(payload)
}

// parseStatus reads an optional sign and the leading decimal digits of code.
// Anything after the digits is ignored. DefaultErrorStatus is returned when
// there are no digits or the value does not fit an int.
func parseStatus(code string) int {
	end := 0
	if end < len(code) && (code[end] == '+' || code[end] == '-') {
		end++
	}
	digits := end
	for end < len(code) && code[end] >= '0' && code[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultErrorStatus
	}

	n, err := strconv.Atoi(code[:end])
	if err != nil {
		return DefaultErrorStatus
	}
	return n
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmptyArgument   = errors.New("empty argument")
	ErrInvalidTime     = errors.New("invalid time of day")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidSymbol   = errors.New("invalid symbol")
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9]{1,15}$`)

// NormalizeSymbol upper-cases and trims a ticker. It must be applied before
// any storage write or lookup.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseSymbol normalizes s and checks it looks like a ticker (A-Z, 0-9, up to 15 chars).
func ParseSymbol(s string) (string, error) {
	sym := NormalizeSymbol(s)
	if sym == "" {
		return "", ErrEmptyArgument
	}
	if !symbolRe.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" wall-clock time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, ErrEmptyArgument
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// ParseIntervalMinutes parses a positive whole number of minutes.
func ParseIntervalMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyArgument
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidInterval, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", ErrInvalidInterval, n)
	}
	return n, nil
}

package rules

import (
	json2 "encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("invalid clock string")

// Clock is a length of game time in whole seconds. It marshals as "MM:SS" and
// unmarshals from either "MM:SS" or a bare number of seconds.
type Clock int

// Seconds returns c as an int.
func (c Clock) Seconds() int {
	return int(c)
}

func (c Clock) String() string {
	return FormatClock(int(c))
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(FormatClock(int(c)))), nil
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	if secs, err := strconv.Atoi(string(b)); err == nil {
		if secs < 0 {
			return &json2.UnmarshalTypeError{Value: string(b), Field: "clock"}
		}
		*c = Clock(secs)
		return nil
	}

	unquoted, err := strconv.Unquote(string(b))
	if err != nil {
		return &json2.UnmarshalTypeError{Value: string(b), Field: "clock"}
	}
	secs, err := ParseClock(unquoted)
	if err != nil {
		return &json2.UnmarshalTypeError{Value: unquoted, Field: "clock"}
	}
	*c = Clock(secs)
	return nil
}

// ParseClock converts "MM:SS" into seconds.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errors.Join(ErrInvalidClock, err)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.Join(ErrInvalidClock, err)
	}
	if minutes < 0 || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	return minutes*60 + seconds, nil
}

// FormatClock renders seconds as "MM:SS". Negative input renders as "00:00".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatShotClock renders the shot clock with two digits.
func FormatShotClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d", seconds)
}

package parser

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/bamsammich/tmpfiles/internal/action"
)

// ageUnits is ordered largest first. Within a value each unit may appear
// once, in this order. "ms" is milliseconds; microseconds are "us" or "µs".
var ageUnits = []struct {
	usec  uint64
	names []string
}{
	{action.Week, []string{"w", "week", "weeks"}},
	{action.Day, []string{"d", "day", "days"}},
	{action.Hour, []string{"h", "hr", "hour", "hours"}},
	{action.Minute, []string{"m", "min", "minute", "minutes"}},
	{action.Second, []string{"s", "sec", "second", "seconds"}},
	{action.Millisecond, []string{"ms", "msec", "millisecond", "milliseconds"}},
	{action.Microsecond, []string{"us", "µs", "usec", "microsecond", "microseconds"}},
}

func lookupUnit(name string) int {
	for i, u := range ageUnits {
		for _, n := range u.names {
			if n == name {
				return i
			}
		}
	}
	return -1
}

func age(c *cursor) (*action.CleanupAge, error) {
	tok, off, err := c.token(FieldAge)
	if err != nil {
		return nil, err
	}
	keep := false
	body := tok
	if body[0] == '~' {
		keep = true
		body = body[1:]
	}
	if isPlaceholder(body) {
		return nil, nil
	}
	bodyOff := off + len(tok) - len(body)

	// A bare integer means seconds. It must be tried before the unit
	// sequence, which would otherwise stop at the first digit run.
	usec, ok, err := ageWithoutUnit(body, bodyOff)
	if err != nil {
		return nil, err
	}
	if !ok {
		usec, err = ageWithUnit(body, bodyOff)
		if err != nil {
			return nil, err
		}
	}
	a := action.NewCleanupAge(usec, keep)
	return &a, nil
}

// ageWithoutUnit handles a token made only of digits. ok is false when the
// token has any other byte in it.
func ageWithoutUnit(body []byte, off int) (usec uint64, ok bool, err error) {
	if !isDecimal(body) {
		return 0, false, nil
	}
	usec, err = scaleAge(body, action.Second, off)
	return usec, err == nil, err
}

// ageWithUnit sums a sequence of <integer><unit> components. An empty body
// is a zero age.
func ageWithUnit(body []byte, off int) (uint64, error) {
	var total uint64
	last := -1
	i := 0
	for i < len(body) {
		numStart := i
		for i < len(body) && body[i] >= '0' && body[i] <= '9' {
			i++
		}
		if i == numStart {
			return 0, newError(ErrMalformedDuration, FieldAge, off+i, body, "expected a number")
		}
		unitStart := i
		for i < len(body) && (body[i] < '0' || body[i] > '9') {
			i++
		}
		unit := string(body[unitStart:i])
		if unit == "" {
			return 0, newError(ErrMalformedDuration, FieldAge, off+unitStart, body, "missing time unit")
		}
		idx := lookupUnit(unit)
		if idx < 0 {
			return 0, newError(ErrMalformedDuration, FieldAge, off+unitStart, body,
				fmt.Sprintf("unknown time unit %q", unit))
		}
		if idx <= last {
			return 0, newError(ErrMalformedDuration, FieldAge, off+unitStart, body,
				fmt.Sprintf("time unit %q repeated or out of order", unit))
		}
		last = idx

		v, err := scaleAge(body[numStart:unitStart], ageUnits[idx].usec, off+numStart)
		if err != nil {
			return 0, err
		}
		var carry uint64
		total, carry = bits.Add64(total, v, 0)
		if carry != 0 {
			return 0, newError(ErrMalformedDuration, FieldAge, off+numStart, body, "value out of range")
		}
	}
	return total, nil
}

func scaleAge(digits []byte, unit uint64, off int) (uint64, error) {
	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, newError(ErrMalformedDuration, FieldAge, off, digits, "value out of range")
	}
	hi, lo := bits.Mul64(n, unit)
	if hi != 0 {
		return 0, newError(ErrMalformedDuration, FieldAge, off, digits, "value out of range")
	}
	return lo, nil
}

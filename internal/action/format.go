package action

import (
	"strconv"
	"strings"
)

// Age units in microseconds.
const (
	Microsecond uint64 = 1
	Millisecond        = 1000 * Microsecond
	Second             = 1000 * Millisecond
	Minute             = 60 * Second
	Hour               = 60 * Minute
	Day                = 24 * Hour
	Week               = 7 * Day
)

// ageUnits lists the canonical spelling of each unit, largest first.
var ageUnits = []struct {
	suffix string
	usec   uint64
}{
	{"w", Week},
	{"d", Day},
	{"h", Hour},
	{"m", Minute},
	{"s", Second},
	{"ms", Millisecond},
	{"us", Microsecond},
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// String formats the mode as it appears in a configuration line.
func (m Mode) String() string {
	s := strconv.FormatUint(uint64(m.Perm), 8)
	for len(s) < 4 {
		s = "0" + s
	}
	if m.Masked {
		return "~" + s
	}
	return s
}

// String formats the age with the largest units first, e.g. "1d3h". A zero
// age is written as "0".
func (c CleanupAge) String() string {
	var b strings.Builder
	if c.KeepFirstLevel {
		b.WriteByte('~')
	}
	if c.Age == 0 {
		b.WriteByte('0')
		return b.String()
	}
	rem := c.Age
	for _, u := range ageUnits {
		if rem < u.usec {
			continue
		}
		b.WriteString(formatUint(rem / u.usec))
		b.WriteString(u.suffix)
		rem %= u.usec
	}
	return b.String()
}

// TypeField returns the type character followed by any modifiers.
func (a Action) TypeField() string {
	b := []byte{a.Type.Char()}
	if a.BootOnly {
		b = append(b, '!')
	}
	if a.AppendOrForce {
		b = append(b, '+')
	}
	if a.AllowFailure {
		b = append(b, '-')
	}
	return string(b)
}

// String returns the canonical configuration line for a. Parsing the result
// yields an Action equal to a.
func (a Action) String() string {
	fields := []string{a.TypeField(), a.Path, "-", "-", "-", "-"}
	if a.Mode != nil {
		fields[2] = a.Mode.String()
	}
	if a.User != nil {
		fields[3] = a.User.String()
	}
	if a.Group != nil {
		fields[4] = a.Group.String()
	}
	if a.Age != nil {
		fields[5] = a.Age.String()
	}
	arg := "-"
	if a.Argument != nil {
		arg = *a.Argument
		// A reader strips one line terminator, so an argument that ends in
		// one needs another after it.
		if strings.HasSuffix(arg, "\n") {
			arg += "\n"
		}
	}
	return strings.Join(fields, " ") + " " + arg
}

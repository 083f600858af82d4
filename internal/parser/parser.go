// Package parser turns tmpfiles.d configuration lines into actions.
//
// A line has the form
//
//	TYPE[!][+][-]  PATH  MODE  USER  GROUP  AGE  ARGUMENT
//
// with fields separated by runs of blanks. MODE, USER, GROUP, AGE and
// ARGUMENT accept "-" to mean "not specified". ARGUMENT runs to the end of
// the line and may contain whitespace.
//
// Parsing holds no state between calls and is safe for concurrent use.
package parser

import (
	"errors"

	"github.com/bamsammich/tmpfiles/internal/action"
)

// Parser parses single lines. The zero value requires every field up to and
// including the blank that precedes ARGUMENT.
type Parser struct {
	// AllowOmittedFields treats trailing fields missing from a line as
	// placeholders, the way systemd-tmpfiles reads "d /run/foo 0755".
	AllowOmittedFields bool
}

// ParseLine parses one line with the strict default Parser.
func ParseLine(line []byte) (action.Action, error) {
	return Parser{}.Parse(line)
}

// trimNewline drops one trailing line terminator so that it never ends up
// in ARGUMENT.
func trimNewline(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return line
}

// Parse parses one line. On failure it returns a zero Action and a *Error.
func (p Parser) Parse(line []byte) (action.Action, error) {
	c := &cursor{line: trimNewline(line)}

	t, mods, err := itemType(c)
	if err != nil {
		return action.Action{}, err
	}
	a := action.Action{
		Type:          t,
		BootOnly:      mods.bootOnly,
		AppendOrForce: mods.appendOrForce,
		AllowFailure:  mods.allowFailure,
	}

	if err := c.separator(FieldPath); err != nil {
		return action.Action{}, err
	}
	if a.Path, err = path(c); err != nil {
		return action.Action{}, err
	}

	steps := []struct {
		field Field
		parse func() error
	}{
		{FieldMode, func() (err error) { a.Mode, err = mode(c); return err }},
		{FieldUser, func() (err error) { a.User, err = user(c); return err }},
		{FieldGroup, func() (err error) { a.Group, err = group(c); return err }},
		{FieldAge, func() (err error) { a.Age, err = age(c); return err }},
		{FieldArgument, func() error { a.Argument = argument(c); return nil }},
	}
	for _, s := range steps {
		done, err := p.next(c, s.field)
		if err != nil {
			return action.Action{}, err
		}
		if done {
			return a, nil
		}
		if err := s.parse(); err != nil {
			return action.Action{}, err
		}
	}
	return a, nil
}

// next consumes the separator in front of field f. done reports that the
// line ended and the remaining fields may be left unset.
func (p Parser) next(c *cursor, f Field) (done bool, err error) {
	err = c.separator(f)
	if err == nil {
		return p.AllowOmittedFields && f != FieldArgument && c.atEnd(), nil
	}
	if p.AllowOmittedFields && errors.Is(err, ErrTruncatedLine) {
		return true, nil
	}
	return false, err
}

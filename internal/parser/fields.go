package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bamsammich/tmpfiles/internal/action"
)

// placeholder marks a field as not specified.
const placeholder = "-"

func isPlaceholder(tok []byte) bool { return string(tok) == placeholder }

type modifiers struct {
	bootOnly      bool
	appendOrForce bool
	allowFailure  bool
}

// itemType reads the type character and its optional modifiers, which must
// appear in the order '!', '+', '-' and at most once each.
func itemType(c *cursor) (action.ItemType, modifiers, error) {
	ch, ok := c.peek()
	if !ok {
		return 0, modifiers{}, newError(ErrTruncatedLine, FieldType, c.pos, nil, "empty line")
	}
	start := c.pos
	if !strings.ContainsRune(action.ValidTypeChars, rune(ch)) {
		return 0, modifiers{}, newError(ErrUnknownItemType, FieldType, start, []byte{ch}, "")
	}
	t, ok := action.ItemTypeFromChar(ch)
	if !ok {
		return 0, modifiers{}, newError(ErrUnknownItemType, FieldType, start, []byte{ch}, "reserved item type is not supported")
	}
	c.pos++

	var m modifiers
	m.bootOnly = c.accept('!')
	m.appendOrForce = c.accept('+')
	m.allowFailure = c.accept('-')
	return t, m, nil
}

func path(c *cursor) (string, error) {
	tok, _, err := c.token(FieldPath)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func mode(c *cursor) (*action.Mode, error) {
	tok, off, err := c.token(FieldMode)
	if err != nil {
		return nil, err
	}
	if isPlaceholder(tok) {
		return nil, nil
	}
	m, err := parseMode(tok, off)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// parseMode accepts an optional '~' followed by three or four octal digits,
// optionally preceded by one redundant zero.
func parseMode(tok []byte, off int) (action.Mode, error) {
	digits := tok
	masked := false
	if len(digits) > 0 && digits[0] == '~' {
		masked = true
		digits = digits[1:]
	}
	for i, d := range digits {
		if d < '0' || d > '7' {
			return action.Mode{}, newError(ErrMalformedMode, FieldMode, off+len(tok)-len(digits)+i, tok,
				fmt.Sprintf("non-octal digit %q", d))
		}
	}
	if len(digits) == 5 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) != 3 && len(digits) != 4 {
		return action.Mode{}, newError(ErrMalformedMode, FieldMode, off, tok, "expected 3 or 4 octal digits")
	}
	perm, err := strconv.ParseUint(string(digits), 8, 32)
	if err != nil {
		return action.Mode{}, newError(ErrMalformedMode, FieldMode, off, tok, err.Error())
	}
	return action.NewMode(masked, uint32(perm)), nil
}

func isDecimal(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	for _, d := range tok {
		if d < '0' || d > '9' {
			return false
		}
	}
	return true
}

// owner splits a user or group token into a numeric id or a name. The
// returned name is only meaningful when byName is true.
func owner(c *cursor, f Field) (tok []byte, id uint32, byName bool, err error) {
	tok, off, err := c.token(f)
	if err != nil {
		return nil, 0, false, err
	}
	if isPlaceholder(tok) || !isDecimal(tok) {
		return tok, 0, true, nil
	}
	n, perr := strconv.ParseUint(string(tok), 10, 32)
	if perr != nil {
		return nil, 0, false, newError(ErrMalformedNumericID, f, off, tok, "out of range for a 32-bit id")
	}
	return tok, uint32(n), false, nil
}

func user(c *cursor) (*action.User, error) {
	tok, id, byName, err := owner(c, FieldUser)
	if err != nil {
		return nil, err
	}
	if isPlaceholder(tok) {
		return nil, nil
	}
	u := action.UserID(id)
	if byName {
		u = action.UserName(string(tok))
	}
	return &u, nil
}

func group(c *cursor) (*action.Group, error) {
	tok, id, byName, err := owner(c, FieldGroup)
	if err != nil {
		return nil, err
	}
	if isPlaceholder(tok) {
		return nil, nil
	}
	g := action.GroupID(id)
	if byName {
		g = action.GroupName(string(tok))
	}
	return &g, nil
}

// argument takes the rest of the line verbatim, embedded whitespace included.
func argument(c *cursor) *string {
	r := c.rest()
	if len(r) == 0 || bytes.Equal(r, []byte(placeholder)) {
		return nil
	}
	s := string(r)
	return &s
}

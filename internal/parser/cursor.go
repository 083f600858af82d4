package parser

// cursor walks one line left to right. It never moves backwards.
type cursor struct {
	line []byte
	pos  int
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (c *cursor) atEnd() bool { return c.pos >= len(c.line) }

func (c *cursor) peek() (byte, bool) {
	if c.atEnd() {
		return 0, false
	}
	return c.line[c.pos], true
}

// accept consumes b if it is the next byte.
func (c *cursor) accept(b byte) bool {
	if next, ok := c.peek(); ok && next == b {
		c.pos++
		return true
	}
	return false
}

// separator consumes a run of blanks preceding field f.
func (c *cursor) separator(f Field) error {
	start := c.pos
	for !c.atEnd() && isBlank(c.line[c.pos]) {
		c.pos++
	}
	if c.pos > start {
		return nil
	}
	if c.atEnd() {
		return newError(ErrTruncatedLine, f, c.pos, nil, "expected "+f.String())
	}
	return newError(ErrMissingSeparator, f, c.pos, c.line[c.pos:c.pos+1], "expected whitespace before "+f.String())
}

// token consumes the maximal run of non-whitespace bytes for field f. An
// empty run is an error.
func (c *cursor) token(f Field) ([]byte, int, error) {
	start := c.pos
	for !c.atEnd() && !isSpace(c.line[c.pos]) {
		c.pos++
	}
	if c.pos > start {
		return c.line[start:c.pos], start, nil
	}
	if c.atEnd() {
		return nil, start, newError(ErrTruncatedLine, f, start, nil, "expected "+f.String())
	}
	return nil, start, newError(ErrMissingSeparator, f, start, c.line[start:start+1], "unexpected whitespace")
}

// rest consumes everything left on the line.
func (c *cursor) rest() []byte {
	r := c.line[c.pos:]
	c.pos = len(c.line)
	return r
}

package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every *Error wraps exactly one of these.
var (
	ErrUnknownItemType    = errors.New("invalid item type")
	ErrMalformedMode      = errors.New("malformed mode")
	ErrMalformedNumericID = errors.New("malformed numeric id")
	ErrMalformedDuration  = errors.New("malformed duration")
	ErrMissingSeparator   = errors.New("missing field separator")
	ErrTruncatedLine      = errors.New("truncated line")
)

// Field names a column of a configuration line.
type Field int

const (
	FieldType Field = iota + 1
	FieldPath
	FieldMode
	FieldUser
	FieldGroup
	FieldAge
	FieldArgument
)

var fieldNames = [...]string{
	FieldType:     "type",
	FieldPath:     "path",
	FieldMode:     "mode",
	FieldUser:     "user",
	FieldGroup:    "group",
	FieldAge:      "age",
	FieldArgument: "argument",
}

func (f Field) String() string {
	if f > 0 && int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

// Error reports where and why a line failed to parse.
type Error struct {
	Field  Field
	Offset int    // byte offset into the line
	Token  string // offending input, may be empty
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v at offset %d", e.Field, e.Err, e.Offset)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, " (%q)", e.Token)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, field Field, offset int, token []byte, detail string) *Error {
	return &Error{
		Field:  field,
		Offset: offset,
		Token:  string(token),
		Detail: detail,
		Err:    kind,
	}
}

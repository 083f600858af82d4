package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/tmpfiles/internal/action"
)

func ptr[T any](v T) *T { return &v }

func daemonAction(t action.ItemType) action.Action {
	return action.Action{
		Type:  t,
		Path:  "/tmp/z/f",
		Mode:  ptr(action.NewMode(false, 0o755)),
		User:  ptr(action.UserName("daemon")),
		Group: ptr(action.GroupName("daemon")),
	}
}

func TestParseLine(t *testing.T) {
	withAge := daemonAction(action.CreateDirectory)
	withAge.Age = ptr(action.NewCleanupAge(97_200_000_000, false))

	withArg := daemonAction(action.CreateDirectory)
	withArg.Argument = ptr("/tmp/C/1-origin")

	tests := []struct {
		name string
		line string
		want action.Action
	}{
		{"relabel", "z     /tmp/z/f    0755 daemon daemon - -", daemonAction(action.RelabelPath)},
		{"file", "f     /tmp/z/f    0755 daemon daemon - -", daemonAction(action.CreateFile)},
		{"age", "d  /tmp/z/f  0755 daemon daemon 1d3h -", withAge},
		{"argument", "d  /tmp/z/f  0755 daemon daemon - /tmp/C/1-origin", withArg},
		{"tabs", "d\t/tmp/z/f\t0755\tdaemon\tdaemon\t1d3h\t-", withAge},
		{"trailing newline", "d  /tmp/z/f  0755 daemon daemon - /tmp/C/1-origin\n", withArg},
		{"trailing crlf", "d  /tmp/z/f  0755 daemon daemon - /tmp/C/1-origin\r\n", withArg},
		{"placeholder argument with newline", "z /tmp/z/f 0755 daemon daemon - -\n", daemonAction(action.RelabelPath)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineAllPlaceholders(t *testing.T) {
	got, err := ParseLine([]byte("r! /var/tmp/x - - - - -"))
	require.NoError(t, err)
	assert.Equal(t, action.Action{Type: action.RemovePath, Path: "/var/tmp/x", BootOnly: true}, got)
}

func TestParseLineArgumentKeepsWhitespace(t *testing.T) {
	got, err := ParseLine([]byte("w+ /etc/motd 0644 root root - hello  world\tagain"))
	require.NoError(t, err)
	require.NotNil(t, got.Argument)
	assert.Equal(t, "hello  world\tagain", *got.Argument)
	assert.True(t, got.AppendOrForce)
}

func TestParseLineNonUTF8Path(t *testing.T) {
	line := []byte("f /tmp/\xff\xfe 0644 - - - -")
	got, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/\xff\xfe", got.Path)
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   error
		field  Field
		offset int
	}{
		{"empty", "", ErrTruncatedLine, FieldType, 0},
		{"unknown type", "y /tmp - - - - -", ErrUnknownItemType, FieldType, 0},
		{"reserved F", "F /tmp - - - - -", ErrUnknownItemType, FieldType, 0},
		{"reserved m", "m /tmp - - - - -", ErrUnknownItemType, FieldType, 0},
		{"repeated modifier", "z!! /tmp - - - - -", ErrMissingSeparator, FieldPath, 2},
		{"modifiers out of order", "z+! /tmp - - - - -", ErrMissingSeparator, FieldPath, 2},
		{"type only", "z", ErrTruncatedLine, FieldPath, 1},
		{"bad mode", "d /tmp 0999 - - - -", ErrMalformedMode, FieldMode, 8},
		{"short mode", "d /tmp 07 - - - -", ErrMalformedMode, FieldMode, 7},
		{"uid overflow", "d /tmp - 4294967296 - - -", ErrMalformedNumericID, FieldUser, 9},
		{"gid overflow", "d /tmp - - 99999999999 - -", ErrMalformedNumericID, FieldGroup, 11},
		{"bad unit", "d /tmp - - - 5x -", ErrMalformedDuration, FieldAge, 14},
		{"missing group", "d /tmp 0755 root", ErrTruncatedLine, FieldGroup, 16},
		{"age without separator", "d /tmp 0755 root root 10d", ErrTruncatedLine, FieldArgument, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine([]byte(tt.line))
			require.Error(t, err)
			assert.Equal(t, action.Action{}, got)
			assert.ErrorIs(t, err, tt.kind)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
			assert.Equal(t, tt.offset, perr.Offset)
		})
	}
}

func TestParseLineRejectsAllCharsOutsideAlphabet(t *testing.T) {
	for c := 0; c < 256; c++ {
		if strings.IndexByte(action.ValidTypeChars, byte(c)) >= 0 {
			continue
		}
		_, err := ParseLine([]byte{byte(c), ' ', '/', 'x', ' ', '-', ' ', '-', ' ', '-', ' ', '-', ' ', '-'})
		assert.ErrorIs(t, err, ErrUnknownItemType, "char %q", c)
	}
}

func TestParserAllowOmittedFields(t *testing.T) {
	p := Parser{AllowOmittedFields: true}

	got, err := p.Parse([]byte("d /run/foo 0755 root\n"))
	require.NoError(t, err)
	assert.Equal(t, action.Action{
		Type: action.CreateDirectory,
		Path: "/run/foo",
		Mode: ptr(action.NewMode(false, 0o755)),
		User: ptr(action.UserName("root")),
	}, got)

	got, err = p.Parse([]byte("d /run/foo 0755 root root 10d "))
	require.NoError(t, err)
	assert.Equal(t, ptr(action.NewCleanupAge(10*action.Day, false)), got.Age)
	assert.Nil(t, got.Argument)

	_, err = p.Parse([]byte("d"))
	assert.ErrorIs(t, err, ErrTruncatedLine)
}

func TestErrorMessage(t *testing.T) {
	_, err := ParseLine([]byte("d /tmp 0999 - - - -"))
	require.Error(t, err)
	assert.Equal(t, `mode: malformed mode at offset 8: non-octal digit '9' ("0999")`, err.Error())
}

func TestRoundTrip(t *testing.T) {
	lines := []string{
		"d  /tmp/z/f  0755 daemon daemon 1d3h -",
		"d  /tmp/z/f  0755 daemon daemon - /tmp/C/1-origin",
		"D!+- /var/tmp ~1777 0 0 ~10d -",
		"e /var/cache/x - - - 1w2d3h4m5s6ms7us -",
		"L+ /etc/localtime - - - - ../usr/share/zoneinfo/UTC",
		"w /sys/kernel/foo - - - - some value with spaces",
		"x /tmp/keep - - - - -",
		"q /var/lib/machines 0700 - - 0 -",
		"A /srv/shared - 12 34 - u:alice:rwx",
		"w /etc/motd - - - - hello\n\n",
		"w /etc/motd - - - - hello\r\n\n",
		"w /etc/motd - - - - two\n\nnewlines\n\n",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			first, err := ParseLine([]byte(line))
			require.NoError(t, err)
			second, err := ParseLine([]byte(first.String()))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestRoundTripArgumentWithTerminator(t *testing.T) {
	for _, arg := range []string{"hello\n", "hello\r\n", "hello\r", "a\n\n"} {
		t.Run(fmt.Sprintf("%q", arg), func(t *testing.T) {
			a := action.Action{Type: action.WriteFile, Path: "/etc/motd", Argument: &arg}
			got, err := ParseLine([]byte(a.String()))
			require.NoError(t, err)
			require.NotNil(t, got.Argument)
			assert.Equal(t, arg, *got.Argument)
		})
	}
}

func TestParseLineConcurrent(t *testing.T) {
	want, err := ParseLine([]byte("d /tmp/z/f 0755 daemon daemon 1d3h -"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				got, err := ParseLine([]byte("d /tmp/z/f 0755 daemon daemon 1d3h -"))
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

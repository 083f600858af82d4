// Package action holds the parsed form of a tmpfiles.d configuration line.
package action

import (
	"os"

	"golang.org/x/sys/unix"
)

// Default permissions applied by executors when a line leaves MODE unset.
const (
	DefaultFileMode      uint32 = 0o644
	DefaultDirectoryMode uint32 = 0o755
)

// Mode is a permission specification. Masked means the mode is only applied
// where it is more permissive than what the target already has.
type Mode struct {
	Masked bool
	Perm   uint32
}

// NewMode returns a Mode with the given flag and permission bits.
func NewMode(masked bool, perm uint32) Mode {
	return Mode{Masked: masked, Perm: perm}
}

// DefaultMode returns the mode an executor should use for t when MODE is "-".
func DefaultMode(t ItemType) Mode {
	if t.IsDirectory() {
		return NewMode(false, DefaultDirectoryMode)
	}
	return NewMode(false, DefaultFileMode)
}

// EffectiveMode returns the configured mode, or the default for the item
// type when none is set.
func (a Action) EffectiveMode() Mode {
	if a.Mode != nil {
		return *a.Mode
	}
	return DefaultMode(a.Type)
}

// FileMode converts the permission bits into an os.FileMode, translating the
// setuid, setgid and sticky bits.
func (m Mode) FileMode() os.FileMode {
	fm := os.FileMode(m.Perm & 0o777)
	if m.Perm&unix.S_ISUID != 0 {
		fm |= os.ModeSetuid
	}
	if m.Perm&unix.S_ISGID != 0 {
		fm |= os.ModeSetgid
	}
	if m.Perm&unix.S_ISVTX != 0 {
		fm |= os.ModeSticky
	}
	return fm
}

// ownerRef is either a numeric id or a symbolic name.
type ownerRef struct {
	id     uint32
	name   string
	byName bool
}

func (o ownerRef) String() string {
	if o.byName {
		return o.name
	}
	return formatUint(uint64(o.id))
}

// User identifies the owning user of a path.
type User struct{ ownerRef }

// UserID returns a User referring to a numeric uid.
func UserID(id uint32) User { return User{ownerRef{id: id}} }

// UserName returns a User referring to a name. The name is not resolved.
func UserName(name string) User { return User{ownerRef{name: name, byName: true}} }

// ID returns the numeric uid and true when the user was given numerically.
func (u User) ID() (uint32, bool) { return u.id, !u.byName }

// Name returns the symbolic name and true when the user was given by name.
func (u User) Name() (string, bool) { return u.name, u.byName }

// Group identifies the owning group of a path.
type Group struct{ ownerRef }

// GroupID returns a Group referring to a numeric gid.
func GroupID(id uint32) Group { return Group{ownerRef{id: id}} }

// GroupName returns a Group referring to a name. The name is not resolved.
func GroupName(name string) Group { return Group{ownerRef{name: name, byName: true}} }

// ID returns the numeric gid and true when the group was given numerically.
func (g Group) ID() (uint32, bool) { return g.id, !g.byName }

// Name returns the symbolic name and true when the group was given by name.
func (g Group) Name() (string, bool) { return g.name, g.byName }

// CleanupAge is the age threshold, in microseconds, past which entries are
// removed during cleanup. KeepFirstLevel exempts the immediate children of
// the configured directory.
type CleanupAge struct {
	Age            uint64
	KeepFirstLevel bool
}

// NewCleanupAge returns a CleanupAge of age microseconds.
func NewCleanupAge(age uint64, keepFirstLevel bool) CleanupAge {
	return CleanupAge{Age: age, KeepFirstLevel: keepFirstLevel}
}

// Action is one parsed configuration line. Path, names and the argument are
// byte strings copied out of the input line and need not be valid UTF-8.
// Optional fields are nil when the line used the "-" placeholder.
type Action struct {
	Type          ItemType
	Path          string
	Mode          *Mode
	User          *User
	Group         *Group
	Age           *CleanupAge
	Argument      *string
	BootOnly      bool
	AppendOrForce bool
	AllowFailure  bool
}

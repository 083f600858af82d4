package action

import "fmt"

// ItemType identifies the kind of operation a line requests.
type ItemType int

const (
	CreateFile ItemType = iota + 1
	CreateDirectory
	TruncateDirectory
	CreateSubvolume
	CreateSubvolumeInheritQuota
	CreateSubvolumeNewQuota
	CreateFifo
	CreateSymlink
	CreateBlockDevice
	CreateCharDevice
	CopyFiles
	WriteFile
	EmptyDirectory
	SetXattr
	RecursiveSetXattr
	SetACL
	RecursiveSetACL
	SetAttribute
	RecursiveSetAttribute
	IgnorePath
	IgnoreDirectoryPath
	RemovePath
	RecursiveRemovePath
	RelabelPath
	RecursiveRelabelPath
)

// Op is a bit set of the run phases an item type takes part in.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpClean
	OpRemove
)

// OpAll selects every phase.
const OpAll = OpCreate | OpClean | OpRemove

type itemTypeInfo struct {
	char      byte
	name      string
	recursive bool
	ops       Op
}

var itemTypes = [...]itemTypeInfo{
	CreateFile:                  {'f', "CreateFile", false, OpCreate},
	CreateDirectory:             {'d', "CreateDirectory", false, OpCreate | OpClean},
	TruncateDirectory:           {'D', "TruncateDirectory", false, OpCreate | OpClean | OpRemove},
	CreateSubvolume:             {'v', "CreateSubvolume", false, OpCreate | OpClean},
	CreateSubvolumeInheritQuota: {'q', "CreateSubvolumeInheritQuota", false, OpCreate | OpClean},
	CreateSubvolumeNewQuota:     {'Q', "CreateSubvolumeNewQuota", false, OpCreate | OpClean},
	CreateFifo:                  {'p', "CreateFifo", false, OpCreate},
	CreateSymlink:               {'L', "CreateSymlink", false, OpCreate},
	CreateBlockDevice:           {'b', "CreateBlockDevice", false, OpCreate},
	CreateCharDevice:            {'c', "CreateCharDevice", false, OpCreate},
	CopyFiles:                   {'C', "CopyFiles", false, OpCreate | OpClean},
	WriteFile:                   {'w', "WriteFile", false, OpCreate},
	EmptyDirectory:              {'e', "EmptyDirectory", false, OpCreate | OpClean},
	SetXattr:                    {'t', "SetXattr", false, OpCreate},
	RecursiveSetXattr:           {'T', "RecursiveSetXattr", true, OpCreate},
	SetACL:                      {'a', "SetACL", false, OpCreate},
	RecursiveSetACL:             {'A', "RecursiveSetACL", true, OpCreate},
	SetAttribute:                {'h', "SetAttribute", false, OpCreate},
	RecursiveSetAttribute:       {'H', "RecursiveSetAttribute", true, OpCreate},
	IgnorePath:                  {'x', "IgnorePath", false, OpClean | OpRemove},
	IgnoreDirectoryPath:         {'X', "IgnoreDirectoryPath", false, OpClean | OpRemove},
	RemovePath:                  {'r', "RemovePath", false, OpRemove},
	RecursiveRemovePath:         {'R', "RecursiveRemovePath", true, OpRemove},
	RelabelPath:                 {'z', "RelabelPath", false, OpCreate},
	RecursiveRelabelPath:        {'Z', "RecursiveRelabelPath", true, OpCreate},
}

// ValidTypeChars is the full type alphabet of the tmpfiles.d format. 'F' and
// 'm' are part of it but deprecated upstream and not mapped to an ItemType.
const ValidTypeChars = "fFdDvqQpLcbCwetTaAhHxXrRzZm"

// ItemTypeFromChar maps a type character to its ItemType. The boolean is
// false for characters that have no mapping, including the reserved ones.
func ItemTypeFromChar(c byte) (ItemType, bool) {
	for t := CreateFile; t <= RecursiveRelabelPath; t++ {
		if itemTypes[t].char == c {
			return t, true
		}
	}
	return 0, false
}

// Valid reports whether t is one of the declared item types.
func (t ItemType) Valid() bool {
	return t >= CreateFile && t <= RecursiveRelabelPath
}

// Char returns the type character used in configuration lines.
func (t ItemType) Char() byte {
	if !t.Valid() {
		return '?'
	}
	return itemTypes[t].char
}

func (t ItemType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ItemType(%d)", int(t))
	}
	return itemTypes[t].name
}

// Recursive reports whether the type applies to a whole tree rather than
// the path alone.
func (t ItemType) Recursive() bool {
	return t.Valid() && itemTypes[t].recursive
}

// Ops returns the phases in which lines of this type are acted upon.
func (t ItemType) Ops() Op {
	if !t.Valid() {
		return 0
	}
	return itemTypes[t].ops
}

// IsDirectory reports whether the type creates or manages a directory, which
// selects the default directory mode.
func (t ItemType) IsDirectory() bool {
	switch t {
	case CreateDirectory, TruncateDirectory, CreateSubvolume,
		CreateSubvolumeInheritQuota, CreateSubvolumeNewQuota, EmptyDirectory:
		return true
	default:
		return false
	}
}

func (o Op) String() string {
	if o == 0 {
		return "none"
	}
	s := ""
	for _, p := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpClean, "clean"}, {OpRemove, "remove"}} {
		if o&p.op == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += p.name
	}
	return s
}

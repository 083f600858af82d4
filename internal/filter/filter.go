// Package filter decides which parsed actions take part in a run.
package filter

import "github.com/bamsammich/tmpfiles/internal/action"

// Rule is a single path prefix rule.
type Rule struct {
	Prefix  *compiledPrefix
	Include bool // true=--prefix, false=--exclude-prefix
}

// Reason says why an action was left out of a run.
type Reason int

const (
	Selected Reason = iota
	SkippedBootOnly
	SkippedPhase
	SkippedExcludedPrefix
	SkippedNoPrefixMatch
)

var reasonNames = [...]string{
	Selected:              "selected",
	SkippedBootOnly:       "boot-only",
	SkippedPhase:          "not in requested phases",
	SkippedExcludedPrefix: "excluded prefix",
	SkippedNoPrefixMatch:  "outside requested prefixes",
}

func (r Reason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Chain holds prefix rules plus the boot and phase settings of a run.
type Chain struct {
	rules    []Rule
	includes int
	boot     bool
	ops      action.Op
}

// NewChain creates a chain that selects every phase and skips boot-only
// actions.
func NewChain() *Chain {
	return &Chain{ops: action.OpAll}
}

// AddPrefix restricts the run to paths under prefix. Multiple prefixes are
// alternatives.
func (c *Chain) AddPrefix(prefix string) error {
	cp, err := compilePrefix(prefix)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Prefix: cp, Include: true})
	c.includes++
	return nil
}

// AddExcludePrefix drops paths under prefix. Exclusions win over prefixes.
func (c *Chain) AddExcludePrefix(prefix string) error {
	cp, err := compilePrefix(prefix)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Prefix: cp, Include: false})
	return nil
}

// SetBoot controls whether boot-only actions are selected.
func (c *Chain) SetBoot(boot bool) {
	c.boot = boot
}

// SetOps sets the phases of the run. Zero selects nothing.
func (c *Chain) SetOps(ops action.Op) {
	c.ops = ops
}

// Ops returns the phases of the run.
func (c *Chain) Ops() action.Op {
	return c.ops
}

// Match reports whether a takes part in the run, and why not if it doesn't.
func (c *Chain) Match(a action.Action) (bool, Reason) {
	if a.BootOnly && !c.boot {
		return false, SkippedBootOnly
	}
	if a.Type.Ops()&c.ops == 0 {
		return false, SkippedPhase
	}

	included := c.includes == 0
	for _, rule := range c.rules {
		if !rule.Prefix.match(a.Path) {
			continue
		}
		if !rule.Include {
			return false, SkippedExcludedPrefix
		}
		included = true
	}
	if !included {
		return false, SkippedNoPrefixMatch
	}
	return true, Selected
}

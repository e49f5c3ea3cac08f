package rule

import (
	"fmt"
	"strings"

	"member-mapper/accessor"
	"member-mapper/internal/common"
)

// Mode selects the compiler backend for a type mapper.
type Mode int

const (
	// ModeDelegate interprets the rule list on every call.
	ModeDelegate Mode = iota
	// ModeGenerated builds a specialised closure chain once at compile time.
	ModeGenerated
)

// String returns the mode name used in rule files.
func (m Mode) String() string {
	switch m {
	case ModeDelegate:
		return "delegate"
	case ModeGenerated:
		return "generated"
	default:
		return common.UnknownStr
	}
}

// ParseMode parses a mode name as written by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "delegate", "interpreted":
		return ModeDelegate, nil
	case "generated", "compiled":
		return ModeGenerated, nil
	default:
		return 0, fmt.Errorf("unknown compilation mode %q", s)
	}
}

// Stage says when a hook runs relative to member assignment.
type Stage int

const (
	StageBefore Stage = iota
	StageAfter
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageBefore:
		return "before"
	case StageAfter:
		return "after"
	default:
		return common.UnknownStr
	}
}

// Hook runs before or after member assignment. Dst is a pointer to the
// destination value being populated.
type Hook struct {
	Name string
	Fn   func(src, dst any) error
}

// Construction creates the destination value before rules run.
type Construction struct {
	Name string
	Fn   func(src any) (any, error)
}

// Plan is the resolved instruction set of one type mapper: everything a
// compiler needs and nothing it may change.
type Plan struct {
	// Rules in first-install order; replaced rules keep their position.
	Rules         []Rule
	Mode          Mode
	CaseSensitive bool
	// Construction is nil when the destination starts from its zero value.
	Construction *Construction
	Before       []Hook
	After        []Hook
}

// Rule returns the plan's rule for path.
func (p *Plan) Rule(path accessor.Path) (Rule, bool) {
	key := path.Key()
	for _, r := range p.Rules {
		if r.Key() == key {
			return r, true
		}
	}

	return Rule{}, false
}

// Active returns the rules that write a member, i.e. everything but Ignore.
func (p *Plan) Active() []Rule {
	out := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.Kind != KindIgnore {
			out = append(out, r)
		}
	}

	return out
}

package mapper

import "member-mapper/rule"

// outcome is what installing a rule does to one target.
type outcome int

const (
	outcomeInstall outcome = iota // no rule at the path yet
	outcomeReplace                // the incoming rule replaces the existing one
	outcomeKeep                   // the existing rule wins; nothing changes
)

// decide resolves a conflict at one destination path.
//
// Explicit rules (member, function, ignore, value, non-overridable
// computed) always replace what is there. A computed rule never replaces
// an explicit one, whatever its own flag; it only replaces overridable
// rules. This lets flattening run before or after user configuration
// without clobbering it.
func decide(existing rule.Rule, exists bool, incoming rule.Rule) outcome {
	if !exists {
		return outcomeInstall
	}

	if incoming.Kind == rule.KindComputed && existing.Explicit() {
		return outcomeKeep
	}

	return outcomeReplace
}

package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"member-mapper/internal/common"
)

// Well-known diagnostic codes.
const (
	CodeDegradedToIgnore = "degraded_to_ignore"
	CodeKeptExplicit     = "kept_explicit"
	CodeReplaced         = "replaced"
	CodeInvalidAccessor  = "invalid_accessor"
	CodeUnmapped         = "unmapped_member"
	CodeUnknownTransform = "unknown_transform"
	CodeInvalidRule      = "invalid_rule"
	CodeTypeNotFound     = "type_not_found"
)

// Diagnostics collects what happened while rules were configured or checked.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic is a single message.
type Diagnostic struct {
	Severity Severity
	// Code is a stable identifier for this kind of diagnostic.
	Code    string
	Message string
	// TypePair names the mapper this relates to, e.g. "store.Order->dto.Order".
	TypePair string
	// Path is the destination member this relates to (if any).
	Path string
	// Suggestions are likely intended member names.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Add records d under its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, typePair, path string, suggestions ...string) {
	d.Add(Diagnostic{
		Severity:    SeverityError,
		Code:        code,
		Message:     message,
		TypePair:    typePair,
		Path:        path,
		Suggestions: suggestions,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, typePair, path string) {
	d.Add(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, TypePair: typePair, Path: path})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, typePair, path string) {
	d.Add(Diagnostic{Severity: SeverityInfo, Code: code, Message: message, TypePair: typePair, Path: path})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge appends everything from other.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)

	return append(out, d.Infos...)
}

// WithCode returns the diagnostics carrying code.
func (d *Diagnostics) WithCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All() {
		if diag.Code == code {
			out = append(out, diag)
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.TypePair != "" {
		prefix = append(prefix, "["+d.TypePair+"]")
	}

	if d.Path != "" {
		prefix = append(prefix, d.Path)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

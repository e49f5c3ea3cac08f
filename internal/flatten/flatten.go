// Package flatten proposes automatic member rules for a type pair.
//
// For every writable destination member that has no rule yet, flattening
// looks for a source member with the same name, or for a nested source path
// whose segment names concatenate to the destination name:
//
//	dst.Name        <- src.Name
//	dst.AddressCity <- src.Address.City
//
// Names are compared verbatim in case-sensitive mode and case-insensitively
// otherwise. Candidates are applied as overridable computed rules, so an
// explicit rule always wins whichever order the two are configured in.
package flatten

import (
	"cmp"
	"slices"
	"strings"

	"member-mapper/accessor"
	"member-mapper/internal/match"
	"member-mapper/schema"
)

// DefaultMaxDepth bounds how deep nested source paths are searched.
const DefaultMaxDepth = 3

// Candidate is a proposed rule: copy Source into Dest.
type Candidate struct {
	Dest   accessor.Path
	Source accessor.Path
}

// Options tune candidate discovery.
type Options struct {
	// CaseSensitive selects verbatim name comparison.
	CaseSensitive bool
	// MaxDepth bounds nested source paths; zero means DefaultMaxDepth.
	MaxDepth int
	// HasRule reports destination members that already carry a rule.
	HasRule func(dest accessor.Path) bool
	// Compatible reports whether a source member can be copied into a
	// destination member. Nil accepts every pair.
	Compatible func(src, dst *schema.Type) bool
}

// Candidates returns the proposed rules for src -> dst in destination
// member order.
func Candidates(src, dst *schema.Type, opts Options) []Candidate {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}

	dst = dst.Deref()
	src = src.Deref()

	if dst == nil || src == nil || dst.Kind != schema.KindStruct || src.Kind != schema.KindStruct {
		return nil
	}

	sources := indexSources(src, depth, opts.CaseSensitive)

	var out []Candidate

	for i := range dst.Fields {
		df := &dst.Fields[i]
		if !df.Writable() {
			continue
		}

		dest := accessor.New(df.Name)
		if opts.HasRule != nil && opts.HasRule(dest) {
			continue
		}

		for _, sp := range sources[match.Fold(df.Name, opts.CaseSensitive)] {
			if opts.Compatible != nil && !opts.Compatible(sp.typ, df.Type) {
				continue
			}

			out = append(out, Candidate{Dest: dest, Source: sp.path})

			break
		}
	}

	return out
}

type sourcePath struct {
	path accessor.Path
	typ  *schema.Type
}

// indexSources groups readable source paths by their folded concatenated
// name, shortest path first.
func indexSources(src *schema.Type, depth int, caseSensitive bool) map[string][]sourcePath {
	index := make(map[string][]sourcePath)

	for _, p := range schema.Leaves(src, depth) {
		res, err := schema.Resolve(src, p)
		if err != nil || !res.Readable {
			continue
		}

		key := match.Fold(strings.Join(p.Segments(), ""), caseSensitive)
		index[key] = append(index[key], sourcePath{path: p, typ: res.Leaf().Type})
	}

	for key := range index {
		slices.SortStableFunc(index[key], func(a, b sourcePath) int {
			return cmp.Compare(a.path.Len(), b.path.Len())
		})
	}

	return index
}

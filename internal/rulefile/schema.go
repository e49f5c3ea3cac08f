package rulefile

// Version is the only rule file version understood.
const Version = "1"

// File is the root of a rule file.
type File struct {
	// Version of the rule file format.
	Version string `yaml:"version" jsonschema:"enum=1"`
	// Mappings declares one mapping per type pair.
	Mappings []Mapping `yaml:"mappings"`
	// Transforms declares the named functions used by mappings.
	Transforms []Transform `yaml:"transforms,omitempty"`
}

// Mapping configures one source -> target type pair.
type Mapping struct {
	// Source type reference, e.g. "store.Order".
	Source string `yaml:"source"`
	// Target type reference, e.g. "warehouse.Order".
	Target string `yaml:"target"`
	// CaseSensitive selects verbatim name comparison when flattening.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`
	// Compile selects the compiler backend: delegate or generated.
	Compile string `yaml:"compile,omitempty" jsonschema:"enum=delegate,enum=generated"`
	// Flatten proposes rules for members without one. Defaults to true.
	Flatten *bool `yaml:"flatten,omitempty"`
	// Members maps destination member paths to source member paths.
	Members map[string]string `yaml:"members,omitempty"`
	// Computed declares nested source paths for destination members.
	Computed []ComputedRule `yaml:"computed,omitempty"`
	// Values assigns literals to destination members.
	Values map[string]any `yaml:"values,omitempty"`
	// Functions maps destination member paths to transform names.
	Functions map[string]string `yaml:"functions,omitempty"`
	// Ignore lists destination members left untouched.
	Ignore StringOrArray `yaml:"ignore,omitempty"`
}

// ComputedRule copies a nested source path into a destination member.
type ComputedRule struct {
	Target string `yaml:"target"`
	Source string `yaml:"source"`
	// Overridable lets a later explicit rule replace this one.
	Overridable bool `yaml:"overridable,omitempty"`
}

// Transform declares a function func(Source) T usable by mappings.
type Transform struct {
	// Name referenced from mapping functions.
	Name string `yaml:"name"`
	// Func is the Go function name. Defaults to Name.
	Func string `yaml:"func,omitempty"`
	// Package is the import path of Func; empty means the generated package.
	Package string `yaml:"package,omitempty"`
}

// StringOrArray is a list that may be written as a single string.
type StringOrArray []string

// TypePair names the mapping the way diagnostics do.
func (m *Mapping) TypePair() string {
	return m.Source + "->" + m.Target
}

// FlattenEnabled reports whether flattening runs for the mapping.
func (m *Mapping) FlattenEnabled() bool {
	return m.Flatten == nil || *m.Flatten
}

// Transform returns the transform declared under name.
func (f *File) Transform(name string) (Transform, bool) {
	for _, t := range f.Transforms {
		if t.Name == name {
			return t, true
		}
	}

	return Transform{}, false
}

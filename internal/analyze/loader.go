package analyze

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"log/slog"
	"path/filepath"
	"reflect"

	"golang.org/x/tools/go/packages"

	"member-mapper/schema"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads Go packages and builds a type graph.
type Analyzer struct {
	graph  *Graph
	cache  map[types.Type]*schema.Type // handles recursive types
	dir    string
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDir sets the directory package patterns are resolved from.
func WithDir(dir string) Option {
	return func(a *Analyzer) {
		a.dir = dir
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		graph:  NewGraph(),
		cache:  make(map[types.Type]*schema.Type),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// LoadPackages loads the packages matching patterns (e.g. "./store",
// "member-mapper/warehouse") and adds their named types to the graph.
func (a *Analyzer) LoadPackages(ctx context.Context, patterns ...string) (*Graph, error) {
	cfg := &packages.Config{
		Mode:    LoadMode,
		Context: ctx,
		Dir:     a.dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	// Register every package before describing types so that external
	// detection does not depend on load order.
	for _, pkg := range pkgs {
		info := &Package{Path: pkg.PkgPath, Name: pkg.Name}
		if len(pkg.GoFiles) > 0 {
			info.Dir = filepath.Dir(pkg.GoFiles[0])
		}

		a.graph.Packages[pkg.PkgPath] = info
	}

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *Graph {
	return a.graph
}

// processPackage describes the exported type names of a loaded package.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	info := a.graph.Packages[pkg.PkgPath]
	scope := pkg.Types.Scope()

	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !typeName.Exported() || typeName.IsAlias() {
			continue
		}

		id := schema.TypeID{PkgPath: pkg.PkgPath, Name: name}
		a.graph.Types[id] = a.describe(typeName.Type())
		info.Types = append(info.Types, id)
	}

	a.logger.Debug("loaded package",
		slog.String("package", pkg.PkgPath),
		slog.Int("types", len(info.Types)))
}

func qualifier(p *types.Package) string {
	return p.Name()
}

// describe converts a go/types type into a schema type.
func (a *Analyzer) describe(t types.Type) *schema.Type {
	if cached, ok := a.cache[t]; ok {
		return cached
	}

	info := &schema.Type{Expr: types.TypeString(t, qualifier)}

	// Pre-cache to handle recursive types.
	a.cache[t] = info

	switch tt := t.(type) {
	case *types.Named:
		a.describeNamed(tt, info)
	case *types.Alias:
		// Aliases share the description of what they stand for.
		delete(a.cache, t)
		resolved := a.describe(types.Unalias(tt))
		a.cache[t] = resolved

		return resolved
	default:
		a.describeUnderlying(t, info)
	}

	return info
}

// describeNamed describes a named type. Types declared outside the loaded
// packages are opaque.
func (a *Analyzer) describeNamed(named *types.Named, info *schema.Type) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		// Predeclared named types such as error.
		info.ID = schema.TypeID{Name: obj.Name()}
		info.Kind = schema.KindExternal

		return
	}

	info.ID = schema.TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()}

	if a.isExternalPackage(obj.Pkg().Path()) {
		info.Kind = schema.KindExternal
		return
	}

	a.describeUnderlying(named.Underlying(), info)

	if info.Kind == schema.KindBasic {
		info.Kind = schema.KindAlias
	}
}

// describeUnderlying fills info from the structure of t.
func (a *Analyzer) describeUnderlying(t types.Type, info *schema.Type) {
	switch tt := t.(type) {
	case *types.Basic:
		info.Kind = schema.KindBasic
		info.Basic = types.Typ[tt.Kind()].Name()
	case *types.Pointer:
		info.Kind = schema.KindPointer
		info.Elem = a.describe(tt.Elem())
	case *types.Slice:
		info.Kind = schema.KindSlice
		info.Elem = a.describe(tt.Elem())
	case *types.Array:
		info.Kind = schema.KindArray
		info.Elem = a.describe(tt.Elem())
	case *types.Map:
		info.Kind = schema.KindMap
		info.Key = a.describe(tt.Key())
		info.Elem = a.describe(tt.Elem())
	case *types.Struct:
		info.Kind = schema.KindStruct
		a.describeFields(tt, info)
	default:
		// Interfaces, channels, functions and type parameters.
		info.Kind = schema.KindUnknown
	}
}

// isExternalPackage returns true if the package is not in our analyzed set.
func (a *Analyzer) isExternalPackage(pkgPath string) bool {
	_, ok := a.graph.Packages[pkgPath]
	return !ok
}

// describeFields records direct members, then members promoted from
// embedded non-pointer structs that are not shadowed.
func (a *Analyzer) describeFields(st *types.Struct, info *schema.Type) {
	seen := make(map[string]bool, st.NumFields())

	for i := range st.NumFields() {
		f := st.Field(i)
		info.Fields = append(info.Fields,
			schema.NewField(f.Name(), f.Exported(), a.describe(f.Type()), reflect.StructTag(st.Tag(i)), f.Embedded(), i))
		seen[f.Name()] = true
	}

	for i := range st.NumFields() {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		inner, ok := f.Type().Underlying().(*types.Struct)
		if !ok {
			continue
		}

		for j := range inner.NumFields() {
			g := inner.Field(j)
			if seen[g.Name()] {
				continue
			}

			seen[g.Name()] = true
			info.Fields = append(info.Fields,
				schema.NewField(g.Name(), g.Exported(), a.describe(g.Type()), reflect.StructTag(inner.Tag(j)), g.Embedded(), i, j))
		}
	}
}

package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"member-mapper/internal/common"
	"member-mapper/internal/plan"
	"member-mapper/schema"
)

// ErrNotGeneratable is returned for rules that have no source form.
var ErrNotGeneratable = errors.New("rule cannot be generated")

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package.
	PackageName string
	// PackagePath is the import path of the generated package. Types and
	// transforms declared there are not qualified.
	PackagePath string
	// OutputDir is where unformatted sources are dumped when formatting
	// fails.
	OutputDir string
	// GenerateComments enables generation of explanatory comments.
	GenerateComments bool
	// IncludeUnmapped lists target members without a rule as comments.
	IncludeUnmapped bool
	// PackageNameOf returns the declared name of an imported package.
	// Nil falls back to the last import path element.
	PackageNameOf func(pkgPath string) string
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PackageName:      "mappers",
		OutputDir:        "./generated",
		GenerateComments: true,
		IncludeUnmapped:  true,
	}
}

// Generator generates Go code from a resolved plan.
type Generator struct {
	config GeneratorConfig
	plan   *plan.Plan
}

// NewGenerator creates a new Generator for p.
func NewGenerator(p *plan.Plan, config GeneratorConfig) *Generator {
	if config.PackageNameOf == nil {
		config.PackageNameOf = common.PkgAlias
	}

	return &Generator{config: config, plan: p}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	Filename string
	Content  []byte
}

// Generate renders every pair of the plan. Pairs that fail do not stop the
// others; their errors are joined.
func (g *Generator) Generate() ([]GeneratedFile, error) {
	var (
		files []GeneratedFile
		errs  []error
	)

	for _, pair := range g.plan.Pairs {
		file, err := g.generatePair(pair)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pair.Name(), err))
			continue
		}

		files = append(files, *file)
	}

	return files, errors.Join(errs...)
}

// FunctionName returns the name of the generated function for pair.
func (g *Generator) FunctionName(pair *plan.Pair) string {
	return fmt.Sprintf("%s%sTo%s%s",
		capitalize(g.pkgName(pair.Source)), pair.Source.Deref().ID.Name,
		capitalize(g.pkgName(pair.Target)), pair.Target.Deref().ID.Name)
}

func (g *Generator) filename(pair *plan.Pair) string {
	return strings.ToLower(fmt.Sprintf("%s_%s_to_%s_%s.go",
		g.pkgName(pair.Source), pair.Source.Deref().ID.Name,
		g.pkgName(pair.Target), pair.Target.Deref().ID.Name))
}

func (g *Generator) pkgName(t *schema.Type) string {
	pkgPath := t.Deref().ID.PkgPath
	if pkgPath == "" || pkgPath == g.config.PackagePath {
		return g.config.PackageName
	}

	return g.config.PackageNameOf(pkgPath)
}

// generatePair generates code for a single type pair.
func (g *Generator) generatePair(pair *plan.Pair) (*GeneratedFile, error) {
	p := pair.Mapper.Plan()
	if p.Construction != nil || len(p.Before) > 0 || len(p.After) > 0 {
		return nil, fmt.Errorf("%w: hooks and constructors run only at run time", ErrNotGeneratable)
	}

	b := newFileBuilder(g)

	fn := functionData{
		Name:   g.FunctionName(pair),
		Source: b.typeExpr(pair.Source),
		Target: b.typeExpr(pair.Target),
	}

	for _, r := range p.Rules {
		lines, err := b.rule(pair, r)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", r.Dest, err)
		}

		fn.Body = append(fn.Body, lines...)
	}

	if g.config.IncludeUnmapped {
		for _, name := range pair.Unmapped {
			fn.Unmapped = append(fn.Unmapped, name+": no rule")
		}
	}

	data := templateData{
		PackageName: g.config.PackageName,
		Imports:     b.importList(),
		Function:    fn,
	}

	filename := g.filename(pair)

	var buf bytes.Buffer
	if err := mapperTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort sidecar to aid debugging.
		_ = writeDebugUnformatted(g.config.OutputDir, filename, buf.Bytes())

		return nil, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{Filename: filename, Content: formatted}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// templateData holds all data needed for the mapper template.
type templateData struct {
	PackageName string
	Imports     []importSpec
	Function    functionData
}

type functionData struct {
	Name     string
	Source   string
	Target   string
	Body     []string
	Unmapped []string
}

// importSpec represents an import statement.
type importSpec struct {
	Alias string
	Path  string
}

var mapperTemplate = template.Must(template.New("mapper").Parse(`// Code generated by member-mapper. DO NOT EDIT.

package {{.PackageName}}
{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
{{with .Function}}
// {{.Name}} maps {{.Source}} to {{.Target}}.
func {{.Name}}(in {{.Source}}) {{.Target}} {
	var out {{.Target}}
{{range .Body}}	{{.}}
{{end}}{{range .Unmapped}}	// {{.}}
{{end}}
	return out
}
{{end}}`))

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"member-mapper/internal/analyze"
	"member-mapper/internal/codegen"
	"member-mapper/internal/common"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/plan"
	"member-mapper/internal/rulefile"
)

const defaultPattern = "./..."

type command struct {
	env    envConfig
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// loadOptions are the flags shared by check and gen.
type loadOptions struct {
	rules    string
	dir      string
	patterns listFlag
	strict   bool
}

func (c *command) bindLoad(fs *flag.FlagSet, o *loadOptions) {
	fs.StringVar(&o.rules, "rules", c.env.Rules, "rule file path")
	fs.StringVar(&o.dir, "dir", "", "directory packages are loaded from")
	fs.Var(&o.patterns, "pkg", "package pattern to load (repeatable, default ./...)")
	fs.BoolVar(&o.strict, "strict", false, "fail on writable target members without a rule")
}

// resolve loads the packages and resolves the rule file. A non-nil plan is
// usable for reporting even when err is set.
func (c *command) resolve(ctx context.Context, o loadOptions) (*plan.Plan, *analyze.Graph, error) {
	file, err := rulefile.LoadFile(o.rules)
	if err != nil {
		return nil, nil, err
	}

	patterns := []string(o.patterns)
	if len(patterns) == 0 {
		patterns = []string{defaultPattern}
	}

	graph, err := analyze.NewAnalyzer(analyze.WithDir(o.dir), analyze.WithLogger(c.logger)).
		LoadPackages(ctx, patterns...)
	if err != nil {
		return nil, nil, err
	}

	config := plan.DefaultConfig()
	config.StrictMode = o.strict
	config.Logger = c.logger

	p, err := plan.NewResolver(graph, file, config).Resolve()

	return p, graph, err
}

// check implements `member-mapper check`.
func (c *command) check(ctx context.Context, args []string) int {
	fs := newFlagSet("check", c.stderr)

	var (
		o     loadOptions
		watch bool
		dump  bool
	)

	c.bindLoad(fs, &o)
	fs.BoolVar(&watch, "watch", false, "re-run when the rule file changes")
	fs.BoolVar(&dump, "dump", false, "dump the resolved rules of every pair")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	once := func() int {
		p, _, err := c.resolve(ctx, o)
		if p != nil {
			c.report(p.Diagnostics)

			if dump {
				c.dump(p)
			}
		}

		if err != nil {
			_ = writef(c.stderr, "error: %v\n", err)
			return 1
		}

		_ = writef(c.stdout, "%s: %d pair(s) ok\n", o.rules, len(p.Pairs))

		return 0
	}

	if !watch {
		return once()
	}

	err := watchFile(ctx, o.rules, c.logger, func() { once() })
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	return 0
}

// gen implements `member-mapper gen`.
func (c *command) gen(ctx context.Context, args []string) int {
	fs := newFlagSet("gen", c.stderr)

	var (
		o        loadOptions
		out      string
		pkgName  string
		pkgPath  string
		comments bool
	)

	c.bindLoad(fs, &o)
	fs.StringVar(&out, "out", c.env.Out, "output directory")
	fs.StringVar(&pkgName, "package", c.env.Package, "generated package name")
	fs.StringVar(&pkgPath, "package-path", "", "import path of the generated package")
	fs.BoolVar(&comments, "comments", true, "emit a comment per rule")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, graph, err := c.resolve(ctx, o)
	if p != nil {
		c.report(p.Diagnostics)
	}

	if err != nil {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	config := codegen.DefaultGeneratorConfig()
	config.PackageName = pkgName
	config.PackagePath = pkgPath
	config.OutputDir = out
	config.GenerateComments = comments
	config.PackageNameOf = func(path string) string {
		if pkg, ok := graph.Packages[path]; ok && pkg.Name != "" {
			return pkg.Name
		}

		return common.PkgAlias(path)
	}

	files, err := codegen.NewGenerator(p, config).Generate()
	if err != nil {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	if err := codegen.WriteFiles(files, out); err != nil {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	for _, f := range files {
		_ = writeln(c.stdout, filepath.Join(out, f.Filename))
	}

	return 0
}

// schema implements `member-mapper schema`.
func (c *command) schema(args []string) int {
	fs := newFlagSet("schema", c.stderr)

	var out string
	fs.StringVar(&out, "o", "", "write the schema to this file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	data, err := rulefile.JSONSchema()
	if err != nil {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	if out == "" {
		_ = writef(c.stdout, "%s\n", data)
		return 0
	}

	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		_ = writef(c.stderr, "error: %v\n", err)
		return 1
	}

	return 0
}

func (c *command) report(d diagnostic.Diagnostics) {
	for _, diag := range d.All() {
		if diag.Severity == diagnostic.SeverityInfo {
			c.logger.Debug(diag.String())
			continue
		}

		_ = writef(c.stdout, "%s: %s\n", diag.Severity, diag)
	}
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (c *command) dump(p *plan.Plan) {
	for _, pair := range p.Pairs {
		_ = writef(c.stdout, "# %s\n", pair.Name())
		dumpConfig.Fdump(c.stdout, pair.Mapper.Plan().Rules)
	}
}

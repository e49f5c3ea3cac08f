// Package main provides the CLI entrypoint for member-mapper.
//
// member-mapper checks rule files against Go packages and generates
// reflection-free mapping functions from them:
//   - check: load packages, resolve the rule file, print diagnostics
//   - gen: generate one mapping function per type pair
//   - schema: print the JSON Schema of the rule file format
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joeshaw/envdecode"
)

// envConfig holds the defaults read from the environment.
type envConfig struct {
	// Rules is the rule file path. ENV: MAPPER_RULES
	Rules string `env:"MAPPER_RULES,default=mapper.yaml"`
	// Out is the output directory of gen. ENV: MAPPER_OUT
	Out string `env:"MAPPER_OUT,default=./generated"`
	// Package is the generated package name. ENV: MAPPER_PACKAGE
	Package string `env:"MAPPER_PACKAGE,default=mappers"`
	// LogLevel is debug, info, warn or error. ENV: MAPPER_LOG_LEVEL
	LogLevel string `env:"MAPPER_LOG_LEVEL,default=warn"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	env, err := loadEnv()
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 1
	}

	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(env.LogLevel)); err != nil {
		_ = writef(stderr, "error: MAPPER_LOG_LEVEL: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cmd := &command{env: env, stdout: stdout, stderr: stderr, logger: logger}

	switch args[0] {
	case "check":
		return cmd.check(ctx, args[1:])
	case "gen":
		return cmd.gen(ctx, args[1:])
	case "schema":
		return cmd.schema(args[1:])
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		_ = writef(stderr, "error: unknown command %q\n", args[0])
		usage(stderr)

		return 2
	}
}

func loadEnv() (envConfig, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return env, fmt.Errorf("environment: %w", err)
	}

	return env, nil
}

func usage(w io.Writer) {
	_ = writeln(w, "Usage: member-mapper <command> [flags]")
	_ = writeln(w)
	_ = writeln(w, "Commands:")
	_ = writeln(w, "  check   resolve a rule file and print diagnostics")
	_ = writeln(w, "  gen     generate mapping functions")
	_ = writeln(w, "  schema  print the rule file JSON Schema")
	_ = writeln(w)
	_ = writeln(w, "Environment: MAPPER_RULES, MAPPER_OUT, MAPPER_PACKAGE, MAPPER_LOG_LEVEL")
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	return fs
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

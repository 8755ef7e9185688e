// Command chtl is the CLI front door for the CHTL compiler: a thin
// Cobra command tree that constructs a compiler.Pipeline, runs it per
// input path, and formats diagnostics for stderr. It performs no
// DSL-specific logic of its own.
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/compiler"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/resolve"
	"github.com/Yhlight/chtl/internal/store"
)

// dirFS adapts an absolute root directory to resolve.FS, rooting every
// relative lookup the resolver does (module names, qualified paths,
// wildcard globs) under root the way os.DirFS would, plus the Stat the
// resolver needs to tell a directory from a file.
type dirFS string

func (d dirFS) Open(name string) (fs.File, error) {
	return os.DirFS(string(d)).Open(name)
}

func (d dirFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(filepath.Join(string(d), name))
}

var (
	searchRoots []string
	dbDSN       string
	debugMode   bool
)

func main() {
	loadDotEnvDefaults()

	root := &cobra.Command{
		Use:   "chtl",
		Short: "Compile CHTL source into a resolved, diagnostics-checked intermediate representation",
	}

	pf := root.PersistentFlags()
	pf.SetNormalizeFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	pf.StringSliceVar(&searchRoots, "search-root", envDefaultList("CHTL_SEARCH_ROOTS"), "additional module search roots, in addition order")
	pf.StringVar(&dbDSN, "session-db", envDefault("CHTL_SESSION_DB", "chtl-sessions.db"), "session store DSN (file path or libsql:// URL)")
	pf.BoolVar(&debugMode, "debug", envDefaultBool("CHTL_DEBUG"), "enable verbose session-store logging")

	root.AddCommand(compileCmd(), checkCmd(), historyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDotEnvDefaults() {
	_ = godotenv.Load()
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDefaultList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return filepath.SplitList(v)
}

func envDefaultBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true"
}

func compileCmd() *cobra.Command {
	var noCache, showDiff bool
	cmd := &cobra.Command{
		Use:   "compile [files...]",
		Short: "Compile one or more CHTL files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileWithDiff(args, noCache, showDiff)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always recompile even if the session store has an unchanged result")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print a unified diff against the previously recorded diagnostics for each file")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Compile without consulting the session cache and report diagnostics (exit status reflects success)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileWithDiff(args, true, false)
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <file>",
		Short: "List prior compile sessions recorded for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(dbDSN, debugMode)
			if err != nil {
				return err
			}
			defer s.Close()
			recs, err := s.History(args[0], 20)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s  success=%v  %dms  sha1=%s\n", r.CreatedAt.Format(time.RFC3339), r.Success, r.DurationMillis, r.SourceSHA1)
			}
			return nil
		},
	}
}

func runCompileWithDiff(paths []string, noCache, showDiff bool) error {
	s, err := store.Open(dbDSN, debugMode)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline := &compiler.Pipeline{
		FS: dirFS("/"),
		Options: resolve.Options{
			SearchRoots: searchRoots,
		},
	}

	hadErrors := false
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("chtl: cannot read %s: %w", p, err)
		}

		prev, hasPrev := s.LastResult(p)
		if !noCache && hasPrev && prev.SourceSHA1 == store.SHA1Of(string(src)) {
			fmt.Printf("%s: up to date, no changes\n", p)
			continue
		}

		start := time.Now()
		file, bag, err := pipeline.Run(p, string(src))
		elapsed := time.Since(start)
		if err != nil {
			return err
		}

		for _, d := range bag.Items() {
			fmt.Fprintln(os.Stderr, d.String())
		}
		success := !bag.HasErrors()
		if !success {
			hadErrors = true
		}

		if showDiff && hasPrev {
			if d := diffAgainstPrevious(prev.DiagnosticJSON, bag.Items(), p); d != "" {
				fmt.Fprintln(os.Stderr, d)
			}
		}

		var symbolNames []string
		if file != nil {
			symbolNames = collectSymbolNames(file)
		}
		if err := s.RecordCompile(p, string(src), success, bag.Items(), symbolNames, elapsed.Milliseconds()); err != nil {
			fmt.Fprintf(os.Stderr, "chtl: failed to record session for %s: %v\n", p, err)
		}
	}

	if hadErrors {
		return fmt.Errorf("compilation finished with errors")
	}
	return nil
}

// diffAgainstPrevious renders a unified diff between the previously
// recorded diagnostics for path and the diagnostics just produced, one
// diagnostic per line, so `compile --diff` shows what changed between
// two runs of the same file without reprinting everything unchanged.
func diffAgainstPrevious(prevJSON []byte, current []diag.Diagnostic, path string) string {
	var prev []diag.Diagnostic
	if err := json.Unmarshal(prevJSON, &prev); err != nil {
		return ""
	}
	diffed := difflib.UnifiedDiff{
		A:        difflib.SplitLines(renderDiagnostics(prev)),
		B:        difflib.SplitLines(renderDiagnostics(current)),
		FromFile: path + " (previous)",
		ToFile:   path + " (current)",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diffed)
	if err != nil || text == "" {
		return ""
	}
	return text
}

func renderDiagnostics(items []diag.Diagnostic) string {
	var b strings.Builder
	for _, d := range items {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func collectSymbolNames(file *ast.File) []string {
	var names []string
	if file.Root == nil {
		return names
	}
	ast.Walk(file.Root, func(n *ast.Node) bool {
		if n.Kind == ast.KindTemplate || n.Kind == ast.KindCustom {
			names = append(names, n.Name)
		}
		return true
	})
	return names
}

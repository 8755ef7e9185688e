// Package compiler wires the CHTL front/middle end stages into one
// pipeline: lex -> parse -> collect symbols ->
// resolve imports -> resolve inheritance -> automate selectors ->
// validate constraints. Modeled on a staged Apply()-with-shared-Stats
// orchestrator, the way a production multi-stage transform pipeline
// chains independently testable steps.
package compiler

import (
	"fmt"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/config"
	"github.com/Yhlight/chtl/internal/constraint"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/inherit"
	"github.com/Yhlight/chtl/internal/lexer"
	"github.com/Yhlight/chtl/internal/parser"
	"github.com/Yhlight/chtl/internal/resolve"
	"github.com/Yhlight/chtl/internal/selector"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/symbol"
	"github.com/Yhlight/chtl/internal/token"
)

// Stats records per-compile counters; Run returns them in ast.File.Stats.
type Stats struct {
	FilesCompiled   int
	TemplatesFound  int
	CustomsFound    int
	ImportsResolved int
	Diagnostics     int
}

// Pipeline runs the full compile for one or more entry files sharing a
// GlobalMap, so cross-file imports/inheritance resolve against the same
// symbol table. The zero value is ready to use; its GlobalMap is
// created on first Run and reused by every later Run on the same
// Pipeline, so a namespace declared in one file is visible while
// compiling the next.
type Pipeline struct {
	FS      resolve.FS
	Options resolve.Options

	g *symbol.GlobalMap
}

// Run compiles the single file at path (already read into src) and
// returns its fully resolved AST, the accumulated diagnostics, and a Go
// error only for a fatal driver-level failure.
func (p *Pipeline) Run(path string, src string) (*ast.File, *diag.Bag, error) {
	bag := diag.New()
	if p.g == nil {
		p.g = symbol.New()
	}
	g := p.g
	stats := &Stats{}

	root := p.parseFile(path, src, nil, bag)

	// A file's own [Configuration] block can remap the bareword/decl/tag
	// spellings the lexer and parser accept (e.g. a [Name] block with
	// `INHERIT = extends;`). Those remaps can only take effect if the
	// file is re-lexed and re-parsed with the resolved table, so find the
	// file's own default Configuration before the real parse pass runs.
	if localCfg := localConfig(root); localCfg != nil {
		resolved := config.Apply(localCfg, diag.New(), path)
		root = p.parseFile(path, src, resolved.Keywords, bag)
	}

	p.collectSymbols(path, root, g, bag)
	p.resolveImports(path, root, g, bag, stats)

	eng := inherit.NewEngine(g)
	resolveInheritance(root, eng, bag)

	cfgNode := config.SelectDefault(g.Configs(), bag)
	var opts config.Options
	if cfgNode != nil {
		opts = config.Apply(cfgNode, bag, path).Options
	} else {
		opts = config.DefaultOptions()
	}

	selector.Automate(root, opts.SelectorOptions())

	cEngine := constraint.NewEngine()
	cEngine.Collect(root, bag)
	cEngine.Check(root, path, bag)

	stats.FilesCompiled = 1
	stats.Diagnostics = bag.Len()

	return &ast.File{Root: root, Stats: stats}, bag, nil
}

// parseFile lexes and parses src with kw (a fresh builtin table when kw is
// nil). Run calls this twice whenever the file declares its own
// [Configuration]: once with the builtin table to discover that block, and
// once more with the resolved table so the remap actually governs lexing.
func (p *Pipeline) parseFile(path, src string, kw *token.KeywordTable, bag *diag.Bag) *ast.Node {
	if kw == nil {
		kw = token.BuiltinKeywordTable()
	}
	sm := state.New()
	lex := lexer.New(path, src, kw, sm.InCSSLikeBlock)
	ps := parser.New(path, lex, kw, bag, sm)
	return ps.ParseFile()
}

// localConfig finds this file's own [Configuration] blocks, independent of
// the compile-wide GlobalMap, and picks the default the same way
// config.SelectDefault does so the duplicate-anonymous-block check does not
// also have to run (and double-report) before the real parse pass.
func localConfig(root *ast.Node) *ast.Node {
	found := make(map[string]*ast.Node)
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.KindConfiguration {
			found[n.ConfigName] = n
		}
		return true
	})
	if len(found) == 0 {
		return nil
	}
	return config.SelectDefault(found, diag.New())
}

func (p *Pipeline) collectSymbols(file string, root *ast.Node, g *symbol.GlobalMap, bag *diag.Bag) {
	ast.Walk(root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindTemplate, ast.KindCustom:
			kind := templateSymbolKind(n)
			ns := ""
			if nsNode := n.EnclosingNamespace(); nsNode != nil {
				ns = nsNode.NamespacePath
			}
			if prev, replaced := g.Declare(&symbol.Symbol{Name: n.Name, Kind: kind, Node: n, Namespace: ns, File: file}); replaced {
				bag.Errorf(diag.Semantic, diag.CodeDuplicateSymbol, file, n.Pos,
					"%s %q is already declared (previously at %s)", n.Kind, n.Name, prev.Node.Pos)
			}
		case ast.KindNamespace:
			if prev, ok := g.Namespace(n.NamespacePath); ok && !prev.Implicit {
				g.MergeNamespace(n.NamespacePath)
			} else {
				g.EnsureNamespace(n.NamespacePath, false)
			}
		case ast.KindConfiguration:
			g.RegisterConfig(n.ConfigName, n)
		case ast.KindStyle:
			for _, sr := range n.Children {
				if sr.Kind == ast.KindStyleRule {
					name, kind := parseSelKind(sr.Name)
					if name != "" {
						if kind == '.' {
							g.RecordClassUsage(name)
						} else if kind == '#' {
							g.RecordIDUsage(name)
						}
					}
				}
			}
		}
		return true
	})
}

func templateSymbolKind(n *ast.Node) symbol.Kind {
	custom := n.Kind == ast.KindCustom
	switch {
	case n.Variety == ast.VarietyStyle && custom:
		return symbol.KindStyleCustom
	case n.Variety == ast.VarietyStyle:
		return symbol.KindStyleTemplate
	case n.Variety == ast.VarietyVar && custom:
		return symbol.KindVarCustom
	case n.Variety == ast.VarietyVar:
		return symbol.KindVarTemplate
	case custom:
		return symbol.KindElementCustom
	default:
		return symbol.KindElementTemplate
	}
}

func parseSelKind(sel string) (string, byte) {
	if sel == "" {
		return "", 0
	}
	switch sel[0] {
	case '.', '#':
		name := sel[1:]
		for i, c := range name {
			if c == ':' {
				name = name[:i]
				break
			}
		}
		return name, sel[0]
	default:
		return "", 0
	}
}

func (p *Pipeline) resolveImports(file string, root *ast.Node, g *symbol.GlobalMap, bag *diag.Bag, stats *Stats) {
	if p.FS == nil {
		return
	}
	r := resolve.New(p.FS, p.Options, g)
	release, ok := resolve.DetectCycle(g, file, bag, root.Pos)
	if !ok {
		return
	}
	defer release()

	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind != ast.KindImport {
			return true
		}
		res := r.ResolveImport(file, n, bag)
		if len(res.ResolvedPaths) > 0 {
			stats.ImportsResolved += len(res.ResolvedPaths)
		}
		return true
	})
}

func resolveInheritance(root *ast.Node, eng *inherit.Engine, bag *diag.Bag) {
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.KindTemplate || n.Kind == ast.KindCustom {
			eng.Resolve(n, bag)
		}
		return true
	})
}

// ErrFatal wraps a non-recoverable driver-level failure, e.g. the entry
// file not existing on disk.
func ErrFatal(path string, cause error) error {
	return fmt.Errorf("chtl: cannot compile %s: %w", path, cause)
}

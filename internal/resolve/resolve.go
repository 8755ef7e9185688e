// Package resolve implements CHTL's import resolver: path
// classification, search-path construction, wildcard expansion bounded
// to 10 directory levels, and loading-stack-based circular-import
// detection. Wildcard matching is delegated to doublestar, the same
// glob engine the broader example pack reaches for wherever a path
// pattern needs matching against a real filesystem tree.
package resolve

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/symbol"
	"github.com/Yhlight/chtl/internal/token"
)

// PathKind classifies a raw import path.
type PathKind int

const (
	KindModuleName PathKind = iota
	KindQualified
	KindRelative
	KindAbsolute
	KindWildcard
	KindRecursiveWildcard
)

// MaxWildcardDepth bounds recursive-wildcard (`**`) expansion.
const MaxWildcardDepth = 10

// Extensions by import kind, tried in order when a bare module name or
// qualified name has no extension of its own.
var extensionsByKind = map[string][]string{
	"Html":       {".html"},
	"Style":      {".css"},
	"JavaScript": {".js"},
	"Chtl":       {".chtl"},
	"CJmod":      {".cjmod"},
	"Config":     {".chtl"},
}

// FS abstracts filesystem access so the resolver can be exercised
// against an in-memory tree in tests without touching disk.
type FS interface {
	fs.FS
	Stat(name string) (fs.FileInfo, error)
}

// Options configures a Resolver.
type Options struct {
	OfficialModuleDir string   // searched first (and only) for chtl::-prefixed paths
	SearchRoots       []string // configured search paths, in addition order
}

// Resolver resolves import paths against a GlobalMap's loading stack and
// a filesystem.
type Resolver struct {
	fsys FS
	opts Options
	g    *symbol.GlobalMap
}

func New(fsys FS, opts Options, g *symbol.GlobalMap) *Resolver {
	return &Resolver{fsys: fsys, opts: opts, g: g}
}

// Classify implements step 1.
func Classify(raw string) PathKind {
	switch {
	case strings.Contains(raw, "**"):
		return KindRecursiveWildcard
	case strings.Contains(raw, "*"):
		return KindWildcard
	case filepath.IsAbs(raw) || strings.HasPrefix(raw, "/"):
		return KindAbsolute
	case strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../"):
		return KindRelative
	case strings.Contains(raw, "/"):
		return KindRelative
	case strings.Contains(raw, "."):
		return KindQualified
	default:
		return KindModuleName
	}
}

// qualifiedToPath translates `Foo.Bar` to `Foo/Bar`.
func qualifiedToPath(raw string) string {
	return strings.ReplaceAll(raw, ".", "/")
}

// searchPaths implements step 2 / §6.4: only the official-module
// directory for `chtl::`-prefixed imports of any kind; otherwise
// the current file's directory, its module/ subdirectory, configured
// search roots in addition order, each with CMOD/CJMOD category
// subdirectories appended.
func (r *Resolver) searchPaths(fromFile, importKind string, official bool) []string {
	if official {
		return []string{r.opts.OfficialModuleDir}
	}
	dir := filepath.Dir(fromFile)
	roots := []string{dir, filepath.Join(dir, "module")}
	roots = append(roots, r.opts.SearchRoots...)
	var out []string
	for _, root := range roots {
		out = append(out, root, filepath.Join(root, "CMOD"), filepath.Join(root, "CJMOD"))
	}
	return out
}

// Result is what ResolveImport returns for one [Import] node.
type Result struct {
	ResolvedPaths []string // one entry for a plain import, many for a wildcard
	Kind          PathKind
}

// ResolveImport resolves n (already attached to fromFile) against the
// search-path rules, recording the attempt in the GlobalMap regardless
// of success so diagnostics and the inverted dependency index stay
// accurate.
func (r *Resolver) ResolveImport(fromFile string, n *ast.Node, bag *diag.Bag) Result {
	raw := n.RawPath
	official := strings.HasPrefix(raw, "chtl::")
	trimmed := strings.TrimPrefix(raw, "chtl::")
	kind := Classify(trimmed)

	defer func() {
		r.g.RecordImport(&symbol.ImportRecord{
			File: fromFile, RawPath: raw, ResolvedPath: n.ResolvedPath, Kind: n.ImportKind, Alias: n.Alias, Wildcard: n.IsWildcard,
		})
	}()

	switch kind {
	case KindWildcard, KindRecursiveWildcard:
		return r.resolveWildcard(fromFile, trimmed, n, bag, official)
	default:
		p, ok := r.resolveSingle(fromFile, trimmed, n.ImportKind, official)
		if !ok {
			bag.Errorf(diag.Resolution, diag.CodeFileNotFound, fromFile, n.Pos,
				"could not resolve import %q", raw)
			return Result{Kind: kind}
		}
		n.ResolvedPath = p
		return Result{ResolvedPaths: []string{p}, Kind: kind}
	}
}

func (r *Resolver) resolveSingle(fromFile, trimmed, importKind string, official bool) (string, bool) {
	candidate := trimmed
	if Classify(trimmed) == KindQualified && !hasKnownExt(trimmed) {
		candidate = qualifiedToPath(trimmed)
	}
	exts := extensionsByKind[importKind]
	if exts == nil {
		exts = []string{""}
	}
	for _, root := range r.searchPaths(fromFile, importKind, official) {
		full := candidate
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, candidate)
		}
		if hasKnownExt(full) {
			if st, err := r.fsys.Stat(full); err == nil && !st.IsDir() {
				return full, true
			}
			continue
		}
		for _, ext := range exts {
			withExt := full + ext
			if st, err := r.fsys.Stat(withExt); err == nil && !st.IsDir() {
				return withExt, true
			}
		}
	}
	return "", false
}

func hasKnownExt(p string) bool {
	ext := filepath.Ext(p)
	switch ext {
	case ".html", ".css", ".js", ".chtl", ".cjmod":
		return true
	default:
		return false
	}
}

// resolveWildcard implements step 4: single-star matches
// exactly one path segment; double-star recurses, bounded to
// MaxWildcardDepth directory levels below the search root: matches
// deeper than that are dropped after doublestar returns them, and a
// pattern whose own depth already exceeds the bound skips that search
// root with a warning.
func (r *Resolver) resolveWildcard(fromFile, trimmed string, n *ast.Node, bag *diag.Bag, official bool) Result {
	for _, root := range r.searchPaths(fromFile, n.ImportKind, official) {
		pattern := path.Join(filepath.ToSlash(root), filepath.ToSlash(trimmed))
		maxDepth := depthOf(filepath.ToSlash(root)) + MaxWildcardDepth
		if depthOf(pattern) > maxDepth {
			bag.Warnf(diag.Resolution, diag.CodeInvalidOption, fromFile, n.Pos,
				"recursive wildcard %q exceeds the %d-level search bound; skipping this search root", n.RawPath, MaxWildcardDepth)
			continue
		}
		matches, err := doublestar.Glob(osFS{r.fsys}, pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		var filtered []string
		for _, m := range matches {
			if matchesImportExtension(m, n.ImportKind) && depthOf(m) <= maxDepth {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) > 0 {
			for _, m := range filtered {
				n.ResolvedPath = m // last wins for single-field compatibility; callers use ResolvedPaths
			}
			return Result{ResolvedPaths: filtered, Kind: Classify(trimmed)}
		}
	}
	bag.Errorf(diag.Resolution, diag.CodeWildcardZeroMatch, fromFile, n.Pos,
		"wildcard import %q matched zero files", n.RawPath)
	return Result{Kind: Classify(trimmed)}
}

func matchesImportExtension(p, importKind string) bool {
	exts, ok := extensionsByKind[importKind]
	if !ok {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(p, e) {
			return true
		}
	}
	return false
}

func depthOf(p string) int {
	return strings.Count(strings.Trim(p, "/"), "/")
}

// osFS adapts our FS interface to doublestar's fs.FS + os.Stat-requiring
// glob.FS interface.
type osFS struct{ FS }

// DetectCycle implements step 5's circular-import check: it pushes file
// onto the loading stack and returns the matching pop as release. If
// file is already on the stack it reports E-CIRCULAR-IMPORT, pushes
// nothing, and returns ok=false. Loading the file's own imports is left
// to the caller.
func DetectCycle(g *symbol.GlobalMap, file string, bag *diag.Bag, pos token.Position) (release func(), ok bool) {
	if g.PushLoading(file) {
		chain := g.LoadingChain()
		bag.Errorf(diag.Resolution, diag.CodeCircularImport, file, pos,
			"circular import detected: %s -> %s", strings.Join(chain, " -> "), file)
		return func() {}, false
	}
	return g.PopLoading, true
}

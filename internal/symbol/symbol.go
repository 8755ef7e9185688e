// Package symbol implements CHTL's global symbol and namespace registry:
// one GlobalMap per compile, populated as each file
// is parsed and consulted by internal/resolve, internal/inherit, and
// internal/compiler. The map is guarded by a single RWMutex rather than
// one lock per sub-table, mirroring the registry pattern a production
// plugin/provider lookup table uses for its canonical-name, alias, and
// extension maps.
package symbol

import (
	"fmt"
	"sync"

	"github.com/Yhlight/chtl/internal/ast"
)

// Kind classifies what a Symbol names.
type Kind int

const (
	KindStyleTemplate Kind = iota
	KindElementTemplate
	KindVarTemplate
	KindStyleCustom
	KindElementCustom
	KindVarCustom
	KindOriginType
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindStyleTemplate:
		return "Template@Style"
	case KindElementTemplate:
		return "Template@Element"
	case KindVarTemplate:
		return "Template@Var"
	case KindStyleCustom:
		return "Custom@Style"
	case KindElementCustom:
		return "Custom@Element"
	case KindVarCustom:
		return "Custom@Var"
	case KindOriginType:
		return "OriginType"
	case KindConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// Symbol is one entry in the global symbol table: a named, kind-tagged
// pointer back to the AST node that defines it, plus the namespace and
// file it was declared in.
type Symbol struct {
	Name      string
	Kind      Kind
	Node      *ast.Node
	Namespace string // "" means the default/global namespace
	File      string
	Imported  bool // true if this symbol entered the file's visibility via an import rather than local declaration
}

// Key uniquely identifies a symbol within one namespace.
func Key(ns string, kind Kind, name string) string {
	return fmt.Sprintf("%s\x00%d\x00%s", ns, kind, name)
}

// NamespaceNode tracks one namespace's declared/implicit status and
// parent-child relationship, supporting the "every CHTL file implicitly
// belongs to a namespace matching its own name" rule
// alongside explicit `[Namespace]` blocks, which may reopen and merge
// into an existing one.
type NamespaceNode struct {
	Path     string
	Implicit bool
	Merged   bool // true once a second [Namespace] block with the same path has been folded in
	Children map[string]*NamespaceNode
}

// ImportRecord remembers one resolved (or attempted) import statement,
// keyed by the importing file, for cycle detection and for the inverted
// "who imports what" index internal/resolve needs to re-check a file
// once one of its dependencies changes.
type ImportRecord struct {
	File         string
	RawPath      string
	ResolvedPath string
	Kind         string
	Alias        string
	Wildcard     bool
}

// GlobalMap is the compile-wide registry. Zero value is not usable; call
// New.
type GlobalMap struct {
	mu sync.RWMutex

	symbols map[string]*Symbol // Key(...) -> Symbol

	namespaces map[string]*NamespaceNode // path -> node

	// importsByFile indexes every import statement seen per importing
	// file; importedBy inverts it (dependency -> dependents) for
	// incremental re-resolution.
	importsByFile map[string][]*ImportRecord
	importedBy    map[string][]string

	// loadingStack holds the files currently mid-resolution, in the
	// order they were entered, so internal/resolve can detect a circular
	// import by checking membership before recursing into a dependency.
	loadingStack []string

	aliases map[string]string // alias name -> canonical qualified symbol key, for `as` imports

	configs       map[string]*ast.Node // config name -> Configuration node; "" key holds the anonymous default
	activeConfig  string

	// classUsage/idUsage count how many local style-block rules
	// reference a given class/id, input to internal/selector's
	// auto-add decision.
	classUsage map[string]int
	idUsage    map[string]int
}

// New returns an empty GlobalMap seeded with the root namespace.
func New() *GlobalMap {
	return &GlobalMap{
		symbols:       make(map[string]*Symbol),
		namespaces:    map[string]*NamespaceNode{"": {Path: "", Children: make(map[string]*NamespaceNode)}},
		importsByFile: make(map[string][]*ImportRecord),
		importedBy:    make(map[string][]string),
		aliases:       make(map[string]string),
		configs:       make(map[string]*ast.Node),
		classUsage:    make(map[string]int),
		idUsage:       make(map[string]int),
	}
}

// Declare registers sym, reporting whether a symbol with the same
// namespace/kind/name already existed (the caller turns that into an
// E-DUPLICATE-SYMBOL diagnostic — duplicate detection itself is not this
// package's job, since a re-declaration via namespace merge is legal).
func (g *GlobalMap) Declare(sym *Symbol) (existing *Symbol, replaced bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := Key(sym.Namespace, sym.Kind, sym.Name)
	if prev, ok := g.symbols[key]; ok {
		g.symbols[key] = sym
		return prev, true
	}
	g.symbols[key] = sym
	return nil, false
}

// Lookup finds a symbol by namespace/kind/name.
func (g *GlobalMap) Lookup(ns string, kind Kind, name string) (*Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.symbols[Key(ns, kind, name)]
	return s, ok
}

// LookupAnyNamespace searches every namespace for a kind/name match,
// returning all hits; a qualified reference (`from ns::Name`) always
// goes through Lookup, but a bare reference the resolver treats as
// ambiguous if more than one hit comes back.
func (g *GlobalMap) LookupAnyNamespace(kind Kind, name string) []*Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Symbol
	for _, s := range g.symbols {
		if s.Kind == kind && s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// EnsureNamespace returns the namespace node for path (dot or
// "::"-separated segments already normalized by the caller into a single
// string), creating it with the given implicit mark if absent; parent
// namespaces are not created and Children is not filled. An existing
// node loses its implicit mark when implicit is false.
func (g *GlobalMap) EnsureNamespace(path string, implicit bool) *NamespaceNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.namespaces[path]; ok {
		if !implicit {
			n.Implicit = false
		}
		return n
	}
	n := &NamespaceNode{Path: path, Implicit: implicit, Children: make(map[string]*NamespaceNode)}
	g.namespaces[path] = n
	return n
}

// Namespace looks up path without creating it.
func (g *GlobalMap) Namespace(path string) (*NamespaceNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.namespaces[path]
	return n, ok
}

// MergeNamespace marks path as merged (a second `[Namespace]` block with
// the same path was found) and returns the existing node.
func (g *GlobalMap) MergeNamespace(path string) *NamespaceNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.namespaces[path]
	if !ok {
		n = &NamespaceNode{Path: path, Children: make(map[string]*NamespaceNode)}
		g.namespaces[path] = n
	}
	n.Merged = true
	return n
}

// RecordImport appends rec to the importing file's list and updates the
// inverted index.
func (g *GlobalMap) RecordImport(rec *ImportRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.importsByFile[rec.File] = append(g.importsByFile[rec.File], rec)
	if rec.ResolvedPath != "" {
		g.importedBy[rec.ResolvedPath] = append(g.importedBy[rec.ResolvedPath], rec.File)
	}
}

func (g *GlobalMap) ImportsOf(file string) []*ImportRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*ImportRecord(nil), g.importsByFile[file]...)
}

// PushLoading pushes file onto the loading stack and reports whether it
// was already present (a circular import).
func (g *GlobalMap) PushLoading(file string) (alreadyLoading bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range g.loadingStack {
		if f == file {
			return true
		}
	}
	g.loadingStack = append(g.loadingStack, file)
	return false
}

// PopLoading pops the most recently pushed file. Callers must pair every
// successful PushLoading with a deferred PopLoading so a branch that
// errors out still unwinds the stack for sibling imports.
func (g *GlobalMap) PopLoading() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.loadingStack) > 0 {
		g.loadingStack = g.loadingStack[:len(g.loadingStack)-1]
	}
}

// LoadingChain returns a snapshot of the current loading stack, used to
// render an E-CIRCULAR-IMPORT diagnostic's cycle path.
func (g *GlobalMap) LoadingChain() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.loadingStack...)
}

// SetAlias records that alias resolves to the qualified symbol key
// target (namespace-qualified, e.g. "shop::Card"). Re-defining an
// existing alias is reported to the caller so it can raise
// E-AMBIGUOUS-SYMBOL.
func (g *GlobalMap) SetAlias(alias, target string) (previous string, existed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev, ok := g.aliases[alias]
	g.aliases[alias] = target
	return prev, ok
}

func (g *GlobalMap) ResolveAlias(alias string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	target, ok := g.aliases[alias]
	return target, ok
}

// RegisterConfig stores a parsed [Configuration] node under its name
// ("" for anonymous). It does not enforce the one-anonymous-default
// rule; internal/config does that once every file has been collected.
func (g *GlobalMap) RegisterConfig(name string, node *ast.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configs[name] = node
}

func (g *GlobalMap) Configs() map[string]*ast.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]*ast.Node, len(g.configs))
	for k, v := range g.configs {
		out[k] = v
	}
	return out
}

func (g *GlobalMap) SetActiveConfig(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeConfig = name
}

func (g *GlobalMap) ActiveConfig() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeConfig
}

// RecordClassUsage/RecordIDUsage feed internal/selector's auto-add
// decision.
func (g *GlobalMap) RecordClassUsage(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.classUsage[name]++
}

func (g *GlobalMap) RecordIDUsage(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idUsage[name]++
}

func (g *GlobalMap) ClassUsage(name string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.classUsage[name]
}

func (g *GlobalMap) IDUsage(name string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.idUsage[name]
}

// AllSymbols returns every declared symbol, for diagnostics/testing.
func (g *GlobalMap) AllSymbols() []*Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Symbol, 0, len(g.symbols))
	for _, s := range g.symbols {
		out = append(out, s)
	}
	return out
}

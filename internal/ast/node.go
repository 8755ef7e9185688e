// Package ast defines CHTL's node model: a typed,
// ownership-clear tree with visitation helpers. Every node except the
// root is exclusively owned by exactly one parent; Parent is a
// non-owning back-reference used only for upward queries.
package ast

import "github.com/Yhlight/chtl/internal/token"

// Kind identifies the concrete node kind the parser emits.
type Kind int

const (
	KindFile Kind = iota
	KindElement
	KindText
	KindStyle
	KindScript
	KindStyleRule // a nested rule inside a local/global style block, e.g. ".box { ... }" or "&:hover { ... }"
	KindAttribute
	KindTemplate
	KindCustom
	KindOrigin
	KindImport
	KindConfiguration
	KindNamespace
	KindDelete
	KindInsert
	KindIndexAccess
	KindNoValueStyle
	KindInherit
	KindUse
	KindExcept
	KindGeneratorComment
	KindVarRef   // @Var Name reference inside a style/attribute value position
	KindStyleRef // @Style Name reference inside a local style block
)

var kindNames = map[Kind]string{
	KindFile:             "File",
	KindElement:          "Element",
	KindText:             "Text",
	KindStyle:            "Style",
	KindScript:           "Script",
	KindStyleRule:        "StyleRule",
	KindAttribute:        "Attribute",
	KindTemplate:         "Template",
	KindCustom:           "Custom",
	KindOrigin:           "Origin",
	KindImport:           "Import",
	KindConfiguration:    "Configuration",
	KindNamespace:        "Namespace",
	KindDelete:           "Delete",
	KindInsert:           "Insert",
	KindIndexAccess:      "IndexAccess",
	KindNoValueStyle:     "NoValueStyle",
	KindInherit:          "Inherit",
	KindUse:              "Use",
	KindExcept:           "Except",
	KindGeneratorComment: "GeneratorComment",
	KindVarRef:           "VarRef",
	KindStyleRef:         "StyleRef",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Variety distinguishes the three flavors a Template/Custom node may be.
type Variety int

const (
	VarietyNone Variety = iota
	VarietyStyle
	VarietyElement
	VarietyVar
)

// TextType classifies a Text node by how its content was written.
type TextType int

const (
	TextQuoted TextType = iota
	TextUnquoted
	TextInline
	TextBlock
)

// InsertPosition is one of the five structural insert positions.
type InsertPosition int

const (
	InsertAfter InsertPosition = iota
	InsertBefore
	InsertReplace
	InsertAtTop
	InsertAtBottom
)

// DeleteTargetKind classifies what a Delete node removes.
type DeleteTargetKind int

const (
	DeleteProperty DeleteTargetKind = iota
	DeleteInheritance
	DeleteElement
	DeleteTemplate
	DeleteCustom
)

// Node is the single concrete type every CHTL AST node is built from.
// Using one struct (rather than one Go type per Kind) keeps ownership and
// visitation uniform, at the cost of carrying fields only some kinds use;
// that extra state lives in typed side-fields instead of a Go interface
// hierarchy, which keeps Clone/Walk trivial.
type Node struct {
	Kind Kind
	Pos  token.Position
	Name string
	Content string

	Attributes map[string]string // ordered is preserved via AttrOrder
	AttrOrder  []string
	Metadata   map[string]string

	Children []*Node
	Parent   *Node // non-owning

	// Element-specific.
	Tag        string
	Classes    []string // insertion order; set semantics enforced by helpers
	ID         string
	AutoClass  bool
	AutoID     bool

	// Text-specific.
	TextType          TextType
	PreserveWhitespace bool

	// Template/Custom-specific.
	Variety        Variety
	Parents        []*Node // Inherit nodes naming explicit parents, in declaration order
	Specializations []*Node // Delete/Insert/IndexAccess nodes applied at use-site

	// Origin-specific.
	OriginType string // built-in ("Html","Style","JavaScript") or user-declared
	Alias      string

	// Import-specific.
	ImportKind    string
	RawPath       string
	ResolvedPath  string
	Excludes      []string
	IsWildcard    bool
	IsRecursive   bool

	// Configuration-specific.
	Options       map[string]string
	NameRemap     map[string][]string // canonical keyword -> accepted spellings
	OriginTypeMap map[string]string   // user type name -> @Tag spelling
	IsDefault     bool
	ConfigName    string

	// Namespace-specific.
	NamespacePath string
	MergeFlag     bool

	// Delete-specific.
	DeleteTargetKind DeleteTargetKind
	DeleteTargets    []string // property names, or qualified references
	DeleteIndex      int      // -1 when absent
	DeleteHasIndex   bool

	// Insert-specific.
	InsertPos      InsertPosition
	TargetSelector string
	TargetIndex    int
	TargetHasIndex bool

	// IndexAccess-specific.
	IndexTag   string
	IndexValue int

	// NoValueStyle-specific.
	NoValueProps []string

	// Inherit-specific.
	InheritTag  string // "Style" | "Element" | "Var"
	InheritName string

	// Use-specific.
	UseTarget string

	// Except-specific.
	ExceptTargets []string
}

// New returns a zero-valued node of the given kind positioned at pos.
func New(kind Kind, pos token.Position) *Node {
	return &Node{
		Kind:       kind,
		Pos:        pos,
		Attributes: make(map[string]string),
		Metadata:   make(map[string]string),
		DeleteIndex: -1,
	}
}

// AddChild appends child to n's children and sets the (non-owning) back
// reference. A node must never be added as a child of two parents; callers
// that move a node between trees must clear the old parent's child slice
// first.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// SetAttribute sets attribute name=value, preserving first-insertion order
// in AttrOrder and keeping n.Classes in sync when name == "class".
func (n *Node) SetAttribute(name, value string) {
	if _, exists := n.Attributes[name]; !exists {
		n.AttrOrder = append(n.AttrOrder, name)
	}
	n.Attributes[name] = value
	if name == "class" {
		n.Classes = splitClassList(value)
	}
	if name == "id" {
		n.ID = value
	}
}

func splitClassList(v string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(v); i++ {
		if i < len(v) && v[i] != ' ' && v[i] != '\t' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			out = append(out, v[start:i])
			start = -1
		}
	}
	return out
}

// SyncClassAttribute regenerates the "class" attribute from n.Classes,
// maintaining the invariant that for every Element node, its class
// attribute, when whitespace-split, equals its class set exactly.
func (n *Node) SyncClassAttribute() {
	if len(n.Classes) == 0 {
		return
	}
	joined := ""
	for i, c := range n.Classes {
		if i > 0 {
			joined += " "
		}
		joined += c
	}
	n.SetAttribute("class", joined)
}

// HasClass reports whether n.Classes already contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to n.Classes (if absent) and resyncs the attribute.
func (n *Node) AddClass(name string) {
	if n.HasClass(name) {
		return
	}
	n.Classes = append(n.Classes, name)
	n.SyncClassAttribute()
}

// StyleChildren returns n's direct Style children, in source order.
func (n *Node) StyleChildren() []*Node { return n.childrenOf(KindStyle) }

// ScriptChildren returns n's direct Script children, in source order.
func (n *Node) ScriptChildren() []*Node { return n.childrenOf(KindScript) }

// TextChildren returns n's direct Text children, in source order.
func (n *Node) TextChildren() []*Node { return n.childrenOf(KindText) }

// ElementChildren returns n's direct Element children, in source order.
func (n *Node) ElementChildren() []*Node { return n.childrenOf(KindElement) }

func (n *Node) childrenOf(k Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and every descendant in pre-order, depth-first.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Clone returns a deep copy of n (and its subtree) with no owning parent
// set. The copy's Position fields are inherited from n, the rule for
// synthesized nodes.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Parent = nil
	cp.Attributes = cloneStringMap(n.Attributes)
	cp.Metadata = cloneStringMap(n.Metadata)
	cp.Options = cloneStringMap(n.Options)
	cp.OriginTypeMap = cloneStringMap(n.OriginTypeMap)
	cp.AttrOrder = append([]string(nil), n.AttrOrder...)
	cp.Classes = append([]string(nil), n.Classes...)
	cp.Excludes = append([]string(nil), n.Excludes...)
	cp.DeleteTargets = append([]string(nil), n.DeleteTargets...)
	cp.NoValueProps = append([]string(nil), n.NoValueProps...)
	cp.ExceptTargets = append([]string(nil), n.ExceptTargets...)
	if n.NameRemap != nil {
		cp.NameRemap = make(map[string][]string, len(n.NameRemap))
		for k, v := range n.NameRemap {
			cp.NameRemap[k] = append([]string(nil), v...)
		}
	}

	cp.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		child := c.Clone()
		child.Parent = &cp
		cp.Children[i] = child
	}

	cp.Parents = make([]*Node, len(n.Parents))
	for i, p := range n.Parents {
		cp.Parents[i] = p.Clone()
	}
	cp.Specializations = make([]*Node, len(n.Specializations))
	for i, s := range n.Specializations {
		cp.Specializations[i] = s.Clone()
	}

	return &cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Ancestors returns n's ancestor chain from immediate parent to root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// EnclosingNamespace walks up from n and returns the nearest Namespace
// ancestor, or nil if n is not nested in one.
func (n *Node) EnclosingNamespace() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindNamespace {
			return p
		}
	}
	return nil
}

// EnclosingElement walks up from n and returns the nearest Element
// ancestor, or nil at the root.
func (n *Node) EnclosingElement() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindElement {
			return p
		}
	}
	return nil
}

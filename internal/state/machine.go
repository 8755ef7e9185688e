// Package state implements CHTL's parse-state machine: a
// stack of frames tracking the current block kind, gating which
// productions the parser may legally use. Frames are acquired and
// released in strict LIFO order; Release is guaranteed on every exit
// path (including error propagation) by always being called from a
// deferred statement at the parser's call site, mirroring a
// begin/commit-or-rollback transaction discipline.
package state

import "fmt"

// Kind identifies what block a frame represents.
type Kind int

const (
	TopLevel Kind = iota
	InNamespace
	InConfiguration
	InTemplate
	InCustom
	InOrigin
	InImport
	InElement
	InText
	InStyle
	InScript
	InStyleRule
	InAttribute
	InSpecialization
	InDeleteStatement
	InInsertStatement
	InExceptStatement
)

func (k Kind) String() string {
	switch k {
	case TopLevel:
		return "TopLevel"
	case InNamespace:
		return "InNamespace"
	case InConfiguration:
		return "InConfiguration"
	case InTemplate:
		return "InTemplate"
	case InCustom:
		return "InCustom"
	case InOrigin:
		return "InOrigin"
	case InImport:
		return "InImport"
	case InElement:
		return "InElement"
	case InText:
		return "InText"
	case InStyle:
		return "InStyle"
	case InScript:
		return "InScript"
	case InStyleRule:
		return "InStyleRule"
	case InAttribute:
		return "InAttribute"
	case InSpecialization:
		return "InSpecialization"
	case InDeleteStatement:
		return "InDeleteStatement"
	case InInsertStatement:
		return "InInsertStatement"
	case InExceptStatement:
		return "InExceptStatement"
	default:
		return "Unknown"
	}
}

// Frame is one entry on the state stack.
type Frame struct {
	Kind    Kind
	Name    string // the declared name, if this frame names something (template/custom/namespace/element tag)
	TypeTag string // "Style"|"Element"|"Var" for template/custom frames
	Global  bool   // for InStyle/InScript: true when at top level, false when nested in an element
}

// legalFrom enumerates, for each current top-of-stack Kind, the set of
// Kinds a new frame may legally enter. TopLevel's out-edges are the
// top-level declaration states; InElement's are nested elements, text,
// local style/script, attributes, or comments (comments never push a
// frame).
var legalFrom = map[Kind]map[Kind]bool{
	TopLevel: {
		InNamespace: true, InConfiguration: true, InTemplate: true,
		InCustom: true, InOrigin: true, InImport: true, InElement: true,
	},
	InNamespace: {
		InNamespace: true, InConfiguration: true, InTemplate: true,
		InCustom: true, InOrigin: true, InImport: true, InElement: true,
	},
	InElement: {
		InElement: true, InText: true, InStyle: true, InScript: true,
		InAttribute: true, InDeleteStatement: true, InInsertStatement: true,
		InExceptStatement: true,
	},
	InTemplate: {
		InDeleteStatement: true, InInsertStatement: true, InElement: true,
		InStyle: true,
	},
	InCustom: {
		InDeleteStatement: true, InInsertStatement: true, InElement: true,
		InStyle: true, InSpecialization: true,
	},
	InStyle: {
		InStyleRule: true, InSpecialization: true,
	},
	InStyleRule: {
		InStyleRule: true, InSpecialization: true,
	},
	InConfiguration: {
		InNamespace: false, // configurations never nest declaration blocks other than their own sub-sections, handled by the parser directly
	},
	InInsertStatement: {
		InElement: true, InStyle: true,
	},
	InDeleteStatement: {},
	InSpecialization:  {InDeleteStatement: true, InInsertStatement: true},
	InImport:          {},
	InOrigin:          {},
	InText:            {},
	InScript:          {},
	InAttribute:       {},
	InExceptStatement: {},
}

// TransitionError reports an illegal frame push as a syntactic
// unexpected-token condition; the parser turns this into a diagnostic
// and performs recovery (skip to a synchronization token).
type TransitionError struct {
	From Kind
	To   Kind
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: cannot enter %s from %s", e.To, e.From)
}

// Machine is the parser's frame stack plus open-delimiter counters.
type Machine struct {
	frames    []Frame
	braces    int
	brackets  int
	parens    int
}

// New returns a Machine seeded with a single TopLevel frame.
func New() *Machine {
	return &Machine{frames: []Frame{{Kind: TopLevel}}}
}

// Current returns the top frame. The stack is never empty: New seeds
// TopLevel and Pop refuses to remove it.
func (m *Machine) Current() Frame { return m.frames[len(m.frames)-1] }

// Depth returns the number of frames currently pushed, including TopLevel.
func (m *Machine) Depth() int { return len(m.frames) }

// Push validates the transition from the current top frame to kind and,
// if legal, pushes a new frame and returns a release func. Callers must
// `defer release()` immediately so the frame is popped on every exit path:
//
//	release, err := m.Push(state.Frame{Kind: state.InElement, Name: tag})
//	if err != nil { return err }
//	defer release()
func (m *Machine) Push(f Frame) (release func(), err error) {
	cur := m.Current().Kind
	if allowed, ok := legalFrom[cur]; !ok || !allowed[f.Kind] {
		return func() {}, &TransitionError{From: cur, To: f.Kind}
	}
	m.frames = append(m.frames, f)
	depth := len(m.frames)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Guard against a caller releasing out of order, which would
		// otherwise corrupt frames pushed by an inner, still-live call.
		if len(m.frames) >= depth {
			m.frames = m.frames[:depth-1]
		}
	}, nil
}

// ForcePush pushes f without validating the transition matrix. The
// parser does not call it; every frame it enters goes through Push.
func (m *Machine) ForcePush(f Frame) func() {
	m.frames = append(m.frames, f)
	depth := len(m.frames)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		if len(m.frames) >= depth {
			m.frames = m.frames[:depth-1]
		}
	}
}

// EnterBrace/EnterBracket/EnterParen and their Exit counterparts track
// nesting depth for the lexer's newline-significance decision and for
// error recovery's "closing brace of the enclosing block" synchronization
// point.
func (m *Machine) EnterBrace() { m.braces++ }
func (m *Machine) ExitBrace()  { m.braces-- }
func (m *Machine) BraceDepth() int { return m.braces }

func (m *Machine) EnterBracket() { m.brackets++ }
func (m *Machine) ExitBracket()  { m.brackets-- }
func (m *Machine) BracketDepth() int { return m.brackets }

func (m *Machine) EnterParen() { m.parens++ }
func (m *Machine) ExitParen()  { m.parens-- }
func (m *Machine) ParenDepth() int { return m.parens }

// InCSSLikeBlock reports whether the lexer should surface newlines as
// tokens: true inside a Style/StyleRule frame.
func (m *Machine) InCSSLikeBlock() bool {
	switch m.Current().Kind {
	case InStyle, InStyleRule:
		return true
	default:
		return false
	}
}

// --- Derived predicates ---

// findFrame returns the nearest frame (searching from the top) with kind k.
func (m *Machine) findFrame(k Kind) (Frame, bool) {
	for i := len(m.frames) - 1; i >= 0; i-- {
		if m.frames[i].Kind == k {
			return m.frames[i], true
		}
	}
	return Frame{}, false
}

// inAny reports whether any frame on the stack has one of the given kinds.
func (m *Machine) inAny(kinds ...Kind) bool {
	for _, f := range m.frames {
		for _, k := range kinds {
			if f.Kind == k {
				return true
			}
		}
	}
	return false
}

// CanUseTemplateVariable: @Var references are legal inside style blocks
// and attribute values, local or global.
func (m *Machine) CanUseTemplateVariable() bool {
	return m.inAny(InStyle, InStyleRule, InAttribute, InElement)
}

// CanUseCustomVariable mirrors CanUseTemplateVariable; customs and
// templates share a reference grammar.
func (m *Machine) CanUseCustomVariable() bool { return m.CanUseTemplateVariable() }

// CanUseStyleGroup: @Style references are legal inside style blocks.
func (m *Machine) CanUseStyleGroup() bool {
	return m.inAny(InStyle, InStyleRule)
}

// CanUseFrom: `from <qualified-reference>` is only legal inside a style
// block or an import statement.
func (m *Machine) CanUseFrom() bool {
	return m.inAny(InStyle, InStyleRule, InImport)
}

// CanUseDelete: delete statements are legal inside elements and inside
// template/custom bodies.
func (m *Machine) CanUseDelete() bool {
	return m.inAny(InElement, InTemplate, InCustom, InSpecialization)
}

// CanUseInherit: inherit statements are legal only inside template/custom
// bodies.
func (m *Machine) CanUseInherit() bool {
	return m.inAny(InTemplate, InCustom)
}

// CanUseSpecialization: insert/index-access specialization operators are
// legal only when specializing a Custom (Templates do not specialize).
func (m *Machine) CanUseSpecialization() bool {
	return m.inAny(InCustom)
}

// IsInGlobalScope reports whether the current frame sits directly under
// TopLevel or a Namespace, i.e. outside any element/template/custom body.
func (m *Machine) IsInGlobalScope() bool {
	cur := m.Current().Kind
	return cur == TopLevel || cur == InNamespace
}

// CurrentStyleIsGlobal reports whether an active InStyle/InScript frame
// was entered at global scope rather than nested inside an Element.
func (m *Machine) CurrentStyleIsGlobal() bool {
	f, ok := m.findFrame(InStyle)
	if !ok {
		f, ok = m.findFrame(InScript)
		if !ok {
			return false
		}
	}
	return f.Global
}

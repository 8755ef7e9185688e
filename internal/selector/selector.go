// Package selector implements CHTL's selector automation engine:
// auto-adding class/id attributes from local style-block selector
// usage, rewriting `&` to the element's primary selector, and computing
// standard CSS specificity for deterministic emission order.
package selector

import (
	"strings"

	"github.com/Yhlight/chtl/internal/ast"
)

// Options carries the Configuration toggles affecting selector automation.
type Options struct {
	DisableStyleAutoAddClass  bool
	DisableStyleAutoAddID     bool
	DisableScriptAutoAddClass bool // default true, set by internal/config
	DisableScriptAutoAddID    bool // default true, set by internal/config
}

// DefaultOptions returns the stated defaults: style auto-add
// enabled, script auto-add disabled.
func DefaultOptions() Options {
	return Options{
		DisableScriptAutoAddClass: true,
		DisableScriptAutoAddID:    true,
	}
}

// Specificity is the standard (inline, id, class, element) 4-tuple.
type Specificity [4]int

// Less reports whether s sorts before o under standard CSS cascade
// ordering (compared most-significant-first).
func (s Specificity) Less(o Specificity) bool {
	for i := 0; i < 4; i++ {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Automate walks every Element under root and applies selector
// automation to each local style block it owns.
func Automate(root *ast.Node, opts Options) {
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.KindElement {
			for _, style := range n.StyleChildren() {
				automateStyle(n, style, opts)
			}
			for _, script := range n.ScriptChildren() {
				automateScript(n, script, opts)
			}
		}
		return true
	})
}

// collectSelectors gathers every selector appearing at the top of the
// style block's direct StyleRule children, in source order.
func collectSelectors(style *ast.Node) []string {
	var out []string
	for _, c := range style.Children {
		if c.Kind == ast.KindStyleRule {
			out = append(out, c.Name)
		}
	}
	return out
}

// automateStyle implements auto-add and primary-selector rewriting for
// one element's local style block.
func automateStyle(owner, style *ast.Node, opts Options) {
	selectors := collectSelectors(style)

	var primaryClass, primaryID string
	for _, sel := range selectors {
		name, kind := parseSelectorHead(sel)
		if name == "" {
			continue
		}
		switch kind {
		case '.':
			if primaryClass == "" {
				primaryClass = name
			}
			if !opts.DisableStyleAutoAddClass && !owner.HasClass(name) {
				owner.AddClass(name)
			}
		case '#':
			if primaryID == "" {
				primaryID = name
			}
			if !opts.DisableStyleAutoAddID && owner.ID == "" {
				owner.ID = name
				owner.SetAttribute("id", name)
			}
		}
	}

	var primary string
	var primaryIsClass bool
	if primaryClass != "" {
		primary, primaryIsClass = primaryClass, true
	} else if primaryID != "" {
		primary, primaryIsClass = primaryID, false
	}

	if primary != "" {
		rewriteAmpersand(style, primary, primaryIsClass)
	}
}

// automateScript is the script-block counterpart of automateStyle. It
// adds no class or id and rewrites nothing, whatever the script toggles
// (which default to true, disabled) say.
func automateScript(owner, script *ast.Node, opts Options) {
	if !opts.DisableScriptAutoAddClass && len(owner.Classes) == 0 {
		// Scripts don't carry their own selector list (they're opaque
		// text, Non-goals); nothing to collect here without a
		// CHTL JS parser, so automation is a no-op beyond honoring the
		// toggle's absence as a documented extension point.
		return
	}
	_ = owner
	_ = script
}

// parseSelectorHead extracts the leading class/id name (before any
// pseudo-class suffix) and its sigil from a raw selector string like
// ".box:hover" or "#main".
func parseSelectorHead(sel string) (name string, kind byte) {
	if sel == "" {
		return "", 0
	}
	switch sel[0] {
	case '.', '#':
		kind = sel[0]
	default:
		return "", 0
	}
	rest := sel[1:]
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}
	return rest, kind
}

// rewriteAmpersand rewrites every top-level "&"-led selector in style's
// StyleRule children to the primary class or id selector.
func rewriteAmpersand(style *ast.Node, primary string, isClass bool) {
	sigil := "#"
	if isClass {
		sigil = "."
	}
	for _, c := range style.Children {
		if c.Kind != ast.KindStyleRule {
			continue
		}
		if strings.HasPrefix(c.Name, "&") {
			c.Name = sigil + primary + strings.TrimPrefix(c.Name, "&")
		}
	}
}

// Compute returns the 4-tuple specificity of a raw selector string,
// counting one id/class/element per occurrence; inline style specificity
// is handled by the caller, since it isn't representable in a selector
// string.
func Compute(sel string) Specificity {
	var s Specificity
	for _, part := range strings.FieldsFunc(sel, func(r rune) bool { return r == ' ' || r == '>' || r == '+' || r == '~' }) {
		compound := part
		for len(compound) > 0 {
			switch compound[0] {
			case '#':
				s[1]++
				compound = skipIdent(compound[1:])
			case '.', ':':
				s[2]++
				compound = skipIdent(compound[1:])
			case '&':
				compound = compound[1:]
			default:
				if isIdentStart(compound[0]) {
					s[3]++
					compound = skipIdent(compound)
				} else {
					compound = compound[1:]
				}
			}
		}
	}
	return s
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '-'
}

func skipIdent(s string) string {
	i := 0
	for i < len(s) && (isIdentStart(s[i]) || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	return s[i:]
}

// Package constraint implements CHTL's constraint engine:
// `except` disallow rules scoped to an enclosing element or namespace,
// inclusive of descendants.
package constraint

import (
	"strings"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
)

// RuleKind classifies a disallow rule.
type RuleKind int

const (
	RuleElementName RuleKind = iota
	RuleType
	RulePreciseSymbol
	RuleNamespaceWide
)

// Rule is one `except`-declared disallow, scoped to Owner (an Element
// or Namespace node) and inherited by every descendant.
type Rule struct {
	Kind   RuleKind
	Target string // element name, type spelling ("@Html","[Template]","[Custom]"), or "[Custom] @Element Box"-style precise target
	Owner  *ast.Node
}

// Engine accumulates scoped rules and checks candidate nodes against
// every rule in scope for their position in the tree.
type Engine struct {
	rulesByOwner map[*ast.Node][]Rule
}

func NewEngine() *Engine { return &Engine{rulesByOwner: make(map[*ast.Node][]Rule)} }

// Collect walks root and registers every Except node's rules against
// its enclosing Element or Namespace.
func (e *Engine) Collect(root *ast.Node, bag *diag.Bag) {
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind != ast.KindExcept {
			return true
		}
		owner := n.Parent
		for owner != nil && owner.Kind != ast.KindElement && owner.Kind != ast.KindNamespace && owner.Kind != ast.KindFile {
			owner = owner.Parent
		}
		for _, target := range n.ExceptTargets {
			e.rulesByOwner[owner] = append(e.rulesByOwner[owner], classify(target, owner))
		}
		return true
	})
}

func classify(target string, owner *ast.Node) Rule {
	switch {
	case strings.HasPrefix(target, "[") && strings.Contains(target, " "):
		return Rule{Kind: RulePreciseSymbol, Target: target, Owner: owner}
	case strings.HasPrefix(target, "@"):
		return Rule{Kind: RuleType, Target: target, Owner: owner}
	case strings.HasPrefix(target, "[") && strings.Contains(target, "]"):
		return Rule{Kind: RuleType, Target: target, Owner: owner}
	case strings.Contains(target, " "):
		return Rule{Kind: RulePreciseSymbol, Target: target, Owner: owner}
	default:
		return Rule{Kind: RuleElementName, Target: target, Owner: owner}
	}
}

// Check validates every Element/Template/Custom/Origin node under root
// against the rules in scope at its position.
func (e *Engine) Check(root *ast.Node, file string, bag *diag.Bag) {
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind != ast.KindElement && n.Kind != ast.KindTemplate && n.Kind != ast.KindCustom && n.Kind != ast.KindOrigin {
			return true
		}
		for _, rule := range e.rulesInScope(n) {
			if violates(rule, n) {
				bag.Errorf(diag.Semantic, diag.CodeConstraintViolation, file, n.Pos,
					"%s is excluded by a constraint declared in scope (%s)", describe(n), rule.Target)
			}
		}
		return true
	})
}

// rulesInScope collects every rule whose owner is n itself or one of
// n's ancestors, implementing descendant-inclusive propagation.
func (e *Engine) rulesInScope(n *ast.Node) []Rule {
	var out []Rule
	cur := n
	for cur != nil {
		out = append(out, e.rulesByOwner[cur]...)
		cur = cur.Parent
	}
	return out
}

func violates(rule Rule, n *ast.Node) bool {
	switch rule.Kind {
	case RuleElementName:
		return n.Kind == ast.KindElement && n.Tag == rule.Target
	case RuleType:
		return matchesType(rule.Target, n)
	case RulePreciseSymbol:
		return matchesPrecise(rule.Target, n)
	case RuleNamespaceWide:
		return true
	default:
		return false
	}
}

func matchesType(target string, n *ast.Node) bool {
	switch target {
	case "@Html":
		return n.Kind == ast.KindOrigin && n.OriginType == "Html"
	case "@Style":
		return n.Kind == ast.KindOrigin && n.OriginType == "Style"
	case "@JavaScript":
		return n.Kind == ast.KindOrigin && n.OriginType == "JavaScript"
	case "[Template]":
		return n.Kind == ast.KindTemplate
	case "[Custom]":
		return n.Kind == ast.KindCustom
	default:
		return false
	}
}

func matchesPrecise(target string, n *ast.Node) bool {
	// "[Custom] @Element Box" style precise target: compare against the
	// node's own declared kind/variety/name.
	parts := strings.Fields(target)
	if len(parts) < 3 {
		return false
	}
	declKind, tag, name := parts[0], parts[1], parts[2]
	wantCustom := declKind == "[Custom]"
	isCustom := n.Kind == ast.KindCustom
	if wantCustom != isCustom && (n.Kind == ast.KindTemplate || n.Kind == ast.KindCustom) {
		return false
	}
	wantVariety := strings.TrimPrefix(tag, "@")
	var haveVariety string
	switch n.Variety {
	case ast.VarietyStyle:
		haveVariety = "Style"
	case ast.VarietyElement:
		haveVariety = "Element"
	case ast.VarietyVar:
		haveVariety = "Var"
	}
	return wantVariety == haveVariety && n.Name == name
}

func describe(n *ast.Node) string {
	switch n.Kind {
	case ast.KindElement:
		return "element <" + n.Tag + ">"
	default:
		return n.Kind.String() + " " + n.Name
	}
}

// Package inherit implements CHTL's inheritance/specialization engine:
// topological merge of Template/Custom parent chains
// into an EffectiveNode, then application of delete/insert/index-access
// specialization operators.
package inherit

import (
	"fmt"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/symbol"
)

// EffectiveNode is the fully merged result of resolving one Template or
// Custom node's parent chain plus its own overrides.
type EffectiveNode struct {
	Source *ast.Node

	// Properties holds the merged property map for Style/Var varieties,
	// keyed by property/variable name.
	Properties map[string]string

	// Unvalued names NoValueStyle: present in Properties
	// with an empty string value, recorded here to enforce "unvalued at
	// emission is a hard error" after every specialization has applied.
	Unvalued map[string]bool

	// Children holds the merged element-template child list, in final
	// order, for VarietyElement nodes.
	Children []*ast.Node
}

// Engine resolves a set of Template/Custom nodes discovered during
// symbol collection.
type Engine struct {
	g         *symbol.GlobalMap
	effective map[*ast.Node]*EffectiveNode
	visiting  map[*ast.Node]bool
	done      map[*ast.Node]bool
}

func NewEngine(g *symbol.GlobalMap) *Engine {
	return &Engine{
		g:         g,
		effective: make(map[*ast.Node]*EffectiveNode),
		visiting:  make(map[*ast.Node]bool),
		done:      make(map[*ast.Node]bool),
	}
}

// Resolve computes (and caches) the EffectiveNode for n, walking parents
// first. Cycles are detected via the visiting set and broken by
// ignoring the back-edge, reporting the cycle rather than recursing
// forever.
func (e *Engine) Resolve(n *ast.Node, bag *diag.Bag) *EffectiveNode {
	if eff, ok := e.effective[n]; ok {
		return eff
	}
	if e.visiting[n] {
		bag.Errorf(diag.Semantic, diag.CodeUnresolvedParent, "", n.Pos,
			"inheritance cycle detected at %q; ignoring the back-edge", n.Name)
		return &EffectiveNode{Source: n, Properties: map[string]string{}, Unvalued: map[string]bool{}}
	}
	e.visiting[n] = true
	defer delete(e.visiting, n)

	eff := &EffectiveNode{Source: n, Properties: map[string]string{}, Unvalued: map[string]bool{}}

	excluded := excludedParents(n)

	for _, parentRef := range n.Parents {
		if excluded[parentRef.InheritName] {
			continue
		}
		parentSym := e.lookupParent(n, parentRef)
		if parentSym == nil {
			bag.Errorf(diag.Resolution, diag.CodeUnresolvedParent, "", parentRef.Pos,
				"cannot resolve inherited %s %q", parentRef.InheritTag, parentRef.InheritName)
			continue
		}
		parentEff := e.Resolve(parentSym.Node, bag)
		mergeInto(eff, parentEff)
	}

	switch n.Variety {
	case ast.VarietyStyle, ast.VarietyVar:
		for _, c := range n.Children {
			if c.Kind != ast.KindAttribute && c.Kind != ast.KindNoValueStyle {
				continue
			}
			applyOwnProperty(eff, c)
		}
	case ast.VarietyElement:
		for _, c := range n.Children {
			if c.Kind == ast.KindDelete || c.Kind == ast.KindInsert {
				continue
			}
			eff.Children = append(eff.Children, c)
		}
	}

	applyInsertsFromChildren(eff, n.Children, bag)
	applyDeletesFromChildren(eff, n.Children, bag)
	applySpecializations(eff, n.Specializations, bag)

	e.effective[n] = eff
	e.done[n] = true
	return eff
}

func excludedParents(n *ast.Node) map[string]bool {
	out := make(map[string]bool)
	for _, c := range n.Children {
		if c.Kind == ast.KindDelete && c.DeleteTargetKind == ast.DeleteInheritance {
			for _, t := range c.DeleteTargets {
				out[t] = true
			}
		}
	}
	return out
}

func (e *Engine) lookupParent(n *ast.Node, ref *ast.Node) *symbol.Symbol {
	kinds := []symbol.Kind{symbolKindFor(n.Kind, n.Variety)}
	if n.Kind == ast.KindCustom {
		kinds = append(kinds, symbolKindFor(ast.KindTemplate, n.Variety))
	}
	ns := ""
	if nsNode := n.EnclosingNamespace(); nsNode != nil {
		ns = nsNode.NamespacePath
	}
	for _, kind := range kinds {
		if sym, ok := e.g.Lookup(ns, kind, ref.InheritName); ok {
			return sym
		}
		hits := e.g.LookupAnyNamespace(kind, ref.InheritName)
		if len(hits) == 1 {
			return hits[0]
		}
	}
	return nil
}

// symbolKindFor maps a (Kind, Variety) pair to the symbol.Kind it is
// declared under. lookupParent searches a node's own kind first; a Custom
// may also inherit a Template of the same variety.
func symbolKindFor(kind ast.Kind, variety ast.Variety) symbol.Kind {
	custom := kind == ast.KindCustom
	switch {
	case variety == ast.VarietyStyle && custom:
		return symbol.KindStyleCustom
	case variety == ast.VarietyStyle:
		return symbol.KindStyleTemplate
	case variety == ast.VarietyVar && custom:
		return symbol.KindVarCustom
	case variety == ast.VarietyVar:
		return symbol.KindVarTemplate
	case custom:
		return symbol.KindElementCustom
	default:
		return symbol.KindElementTemplate
	}
}

// mergeInto folds parentEff's contributions into eff in declaration
// order.
func mergeInto(eff *EffectiveNode, parentEff *EffectiveNode) {
	for k, v := range parentEff.Properties {
		eff.Properties[k] = v
	}
	for k, v := range parentEff.Unvalued {
		eff.Unvalued[k] = v
	}
	eff.Children = append(eff.Children, parentEff.Children...)
}

func applyOwnProperty(eff *EffectiveNode, c *ast.Node) {
	if c.Kind == ast.KindNoValueStyle {
		for _, name := range c.NoValueProps {
			eff.Properties[name] = ""
			eff.Unvalued[name] = true
		}
		return
	}
	eff.Properties[c.Name] = c.Content
	delete(eff.Unvalued, c.Name)
}

// applyDeletesFromChildren handles `delete property-list;` and
// `delete tag[N];` statements that live directly in the node's own body
// (as opposed to a use-site specialization block).
func applyDeletesFromChildren(eff *EffectiveNode, children []*ast.Node, bag *diag.Bag) {
	for _, c := range children {
		if c.Kind != ast.KindDelete {
			continue
		}
		applyDelete(eff, c, bag)
	}
}

// applyInsertsFromChildren handles `insert ...;` statements that live
// directly in the node's own body, mirroring
// applyDeletesFromChildren.
func applyInsertsFromChildren(eff *EffectiveNode, children []*ast.Node, bag *diag.Bag) {
	for _, c := range children {
		if c.Kind != ast.KindInsert {
			continue
		}
		applyInsert(eff, c, bag)
	}
}

func applyDelete(eff *EffectiveNode, d *ast.Node, bag *diag.Bag) {
	switch d.DeleteTargetKind {
	case ast.DeleteProperty:
		for _, name := range d.DeleteTargets {
			delete(eff.Properties, name)
			delete(eff.Unvalued, name)
		}
	case ast.DeleteElement:
		if len(d.DeleteTargets) == 0 {
			return
		}
		tag := d.DeleteTargets[0]
		eff.Children = removeNthMatching(eff.Children, tag, d.DeleteIndex, bag, d)
	case ast.DeleteInheritance:
		// Handled up-front in excludedParents before the merge runs.
	}
}

func removeNthMatching(children []*ast.Node, tag string, idx int, bag *diag.Bag, d *ast.Node) []*ast.Node {
	count := 0
	out := make([]*ast.Node, 0, len(children))
	found := false
	for _, c := range children {
		if c.Kind == ast.KindElement && c.Tag == tag {
			if count == idx {
				found = true
				count++
				continue
			}
			count++
		}
		out = append(out, c)
	}
	if !found {
		bag.Errorf(diag.Semantic, diag.CodeInvalidSpecTarget, "", d.Pos,
			"delete %s[%d]: no such child element", tag, idx)
		return children
	}
	return out
}

// applySpecializations applies use-site delete/insert/index-access
// operators collected on n.Specializations, running after the
// inheritance merge so they see the fully merged node.
func applySpecializations(eff *EffectiveNode, specs []*ast.Node, bag *diag.Bag) {
	for _, s := range specs {
		switch s.Kind {
		case ast.KindDelete:
			applyDelete(eff, s, bag)
		case ast.KindInsert:
			applyInsert(eff, s, bag)
		case ast.KindIndexAccess:
			applyIndexAccess(eff, s, bag)
		default:
			// Plain overriding property/element inside a specialization
			// body: treat as an own-property/own-child overlay.
			if s.Kind == ast.KindAttribute || s.Kind == ast.KindNoValueStyle {
				applyOwnProperty(eff, s)
			} else if s.Kind == ast.KindElement {
				eff.Children = append(eff.Children, s)
			}
		}
	}
}

func applyInsert(eff *EffectiveNode, ins *ast.Node, bag *diag.Bag) {
	switch ins.InsertPos {
	case ast.InsertAtTop:
		eff.Children = append(append([]*ast.Node{}, ins.Children...), eff.Children...)
	case ast.InsertAtBottom:
		eff.Children = append(eff.Children, ins.Children...)
	case ast.InsertAfter, ast.InsertBefore, ast.InsertReplace:
		idx := findTargetIndex(eff.Children, ins.TargetSelector, ins.TargetHasIndex, ins.TargetIndex)
		if idx < 0 {
			bag.Errorf(diag.Semantic, diag.CodeInvalidSpecTarget, "", ins.Pos,
				"insert %s: target %q not found among children", insertPosName(ins.InsertPos), ins.TargetSelector)
			return
		}
		switch ins.InsertPos {
		case ast.InsertAfter:
			out := append([]*ast.Node{}, eff.Children[:idx+1]...)
			out = append(out, ins.Children...)
			out = append(out, eff.Children[idx+1:]...)
			eff.Children = out
		case ast.InsertBefore:
			out := append([]*ast.Node{}, eff.Children[:idx]...)
			out = append(out, ins.Children...)
			out = append(out, eff.Children[idx:]...)
			eff.Children = out
		case ast.InsertReplace:
			out := append([]*ast.Node{}, eff.Children[:idx]...)
			out = append(out, ins.Children...)
			out = append(out, eff.Children[idx+1:]...)
			eff.Children = out
		}
	}
}

func insertPosName(p ast.InsertPosition) string {
	switch p {
	case ast.InsertAfter:
		return "after"
	case ast.InsertBefore:
		return "before"
	case ast.InsertReplace:
		return "replace"
	case ast.InsertAtTop:
		return "at top"
	case ast.InsertAtBottom:
		return "at bottom"
	default:
		return "?"
	}
}

func findTargetIndex(children []*ast.Node, selector string, hasIndex bool, index int) int {
	count := 0
	for i, c := range children {
		if c.Kind != ast.KindElement || c.Tag != selector {
			continue
		}
		if !hasIndex || count == index {
			return i
		}
		count++
	}
	return -1
}

// applyIndexAccess attaches an override/augmentation body to the N-th
// matching child; if absent, reports E-INVALID-SPECIALIZATION-TARGET.
func applyIndexAccess(eff *EffectiveNode, ia *ast.Node, bag *diag.Bag) {
	count := 0
	for _, c := range eff.Children {
		if c.Kind != ast.KindElement || c.Tag != ia.IndexTag {
			continue
		}
		if count == ia.IndexValue {
			for _, child := range ia.Children {
				c.AddChild(child)
			}
			return
		}
		count++
	}
	bag.Errorf(diag.Semantic, diag.CodeInvalidSpecTarget, "", ia.Pos,
		fmt.Sprintf("%s[%d]: no such child element", ia.IndexTag, ia.IndexValue))
}

// CheckUnvalued enforces the NoValueStyle rule: a property still
// unvalued at emission time is a hard error.
func CheckUnvalued(eff *EffectiveNode, file string, bag *diag.Bag) {
	for name, unvalued := range eff.Unvalued {
		if unvalued {
			bag.Errorf(diag.Semantic, diag.CodeUnvaluedProperty, file, eff.Source.Pos,
				"property %q has no value at emission", name)
		}
	}
}

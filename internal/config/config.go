// Package config implements CHTL's configuration manager: parses `[Configuration]` option
// blocks into a typed Options value and builds the remapped
// token.KeywordTable the lexer is driven with.
package config

import (
	"strconv"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/selector"
	"github.com/Yhlight/chtl/internal/token"
)

// Options holds every enumerated Configuration option, with the
// defaults stated below.
type Options struct {
	IndexInitialCount         int
	DebugMode                 bool
	DisableNameGroup          bool
	DisableCustomOriginType   bool
	DisableStyleAutoAddClass  bool
	DisableStyleAutoAddID     bool
	DisableScriptAutoAddClass bool
	DisableScriptAutoAddID    bool
	DisableDefaultNamespace   bool
	OptionCount               int
}

// DefaultOptions returns stated defaults.
func DefaultOptions() Options {
	return Options{
		IndexInitialCount:         0,
		DisableScriptAutoAddClass: true,
		DisableScriptAutoAddID:    true,
		OptionCount:               4,
	}
}

// SelectorOptions projects the subset of Options internal/selector needs.
func (o Options) SelectorOptions() selector.Options {
	return selector.Options{
		DisableStyleAutoAddClass:  o.DisableStyleAutoAddClass,
		DisableStyleAutoAddID:     o.DisableStyleAutoAddID,
		DisableScriptAutoAddClass: o.DisableScriptAutoAddClass,
		DisableScriptAutoAddID:    o.DisableScriptAutoAddID,
	}
}

// Resolved is one fully-applied Configuration: its parsed Options, the
// KeywordTable it produces, and the registered user origin types.
type Resolved struct {
	Name     string
	IsDefault bool
	Options  Options
	Keywords *token.KeywordTable
}

// Apply parses cfgNode (a KindConfiguration AST node) into a Resolved
// configuration layered on top of token.BuiltinKeywordTable(), per
// "clone, never mutate a shared table" rule.
func Apply(cfgNode *ast.Node, bag *diag.Bag, file string) *Resolved {
	opts := DefaultOptions()
	kw := token.BuiltinKeywordTable()

	for name, raw := range cfgNode.Options {
		applyOption(&opts, name, raw, file, cfgNode, bag)
	}

	for canonical, spellings := range cfgNode.NameRemap {
		if canonical == "__export" {
			continue
		}
		applyNameRemap(kw, canonical, spellings)
	}

	if !opts.DisableCustomOriginType {
		for name := range cfgNode.OriginTypeMap {
			kw.OriginTypes[name] = true
		}
	}

	return &Resolved{
		Name:      cfgNode.ConfigName,
		IsDefault: cfgNode.IsDefault,
		Options:   opts,
		Keywords:  kw,
	}
}

func applyOption(opts *Options, name, raw, file string, cfgNode *ast.Node, bag *diag.Bag) {
	switch name {
	case "INDEX_INITIAL_COUNT":
		n, err := strconv.Atoi(raw)
		if err != nil {
			bag.Errorf(diag.Configuration, diag.CodeInvalidOption, file, cfgNode.Pos,
				"INDEX_INITIAL_COUNT must be an integer, got %q", raw)
			return
		}
		opts.IndexInitialCount = n
	case "OPTION_COUNT":
		n, err := strconv.Atoi(raw)
		if err != nil {
			bag.Errorf(diag.Configuration, diag.CodeInvalidOption, file, cfgNode.Pos,
				"OPTION_COUNT must be an integer, got %q", raw)
			return
		}
		opts.OptionCount = n
	case "DEBUG_MODE":
		opts.DebugMode = parseBool(raw)
	case "DISABLE_NAME_GROUP":
		opts.DisableNameGroup = parseBool(raw)
	case "DISABLE_CUSTOM_ORIGIN_TYPE":
		opts.DisableCustomOriginType = parseBool(raw)
	case "DISABLE_STYLE_AUTO_ADD_CLASS":
		opts.DisableStyleAutoAddClass = parseBool(raw)
	case "DISABLE_STYLE_AUTO_ADD_ID":
		opts.DisableStyleAutoAddID = parseBool(raw)
	case "DISABLE_SCRIPT_AUTO_ADD_CLASS":
		opts.DisableScriptAutoAddClass = parseBool(raw)
	case "DISABLE_SCRIPT_AUTO_ADD_ID":
		opts.DisableScriptAutoAddID = parseBool(raw)
	case "DISABLE_DEFAULT_NAMESPACE":
		opts.DisableDefaultNamespace = parseBool(raw)
	default:
		bag.Errorf(diag.Configuration, diag.CodeInvalidOption, file, cfgNode.Pos,
			"unknown configuration option %q", name)
	}
}

func parseBool(raw string) bool {
	switch raw {
	case "true", "True", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// applyNameRemap widens kw.Words (or kw.Decls/kw.Tags, depending on
// which table canonical belongs to) so every listed spelling lexes to
// the same canonical identity.
func applyNameRemap(kw *token.KeywordTable, canonical string, spellings []string) {
	if declKind, ok := builtinDeclByCanonical[canonical]; ok {
		for _, s := range spellings {
			kw.Decls[s] = declKind
		}
		return
	}
	if tag, ok := builtinTagByCanonical[canonical]; ok {
		for _, s := range spellings {
			kw.Tags[strimAt(s)] = tag
		}
		return
	}
	word := canonical
	if w, ok := builtinWordByCanonical[canonical]; ok {
		word = w
	}
	for _, s := range spellings {
		kw.Words[strimAt(s)] = word
	}
}

func strimAt(s string) string {
	if len(s) > 0 && s[0] == '@' {
		return s[1:]
	}
	return s
}

var builtinDeclByCanonical = map[string]token.DeclKind{
	"TEMPLATE":      token.DeclTemplate,
	"CUSTOM":        token.DeclCustom,
	"ORIGIN":        token.DeclOrigin,
	"IMPORT":        token.DeclImport,
	"CONFIGURATION": token.DeclConfiguration,
	"NAMESPACE":     token.DeclNamespace,
	"NAME":          token.DeclName,
	"ORIGINTYPE":    token.DeclOriginType,
	"INFO":          token.DeclInfo,
	"EXPORT":        token.DeclExport,
}

// builtinWordByCanonical maps a [Name] block's uppercase key to the
// bareword spelling it remaps, for the keywords not covered by
// builtinDeclByCanonical/builtinTagByCanonical (bracketed declarations and
// '@'-tags, respectively).
var builtinWordByCanonical = map[string]string{
	"INHERIT": "inherit",
	"DELETE":  "delete",
	"INSERT":  "insert",
	"EXCEPT":  "except",
	"USE":     "use",
	"FROM":    "from",
	"AS":      "as",
	"AFTER":   "after",
	"BEFORE":  "before",
	"REPLACE": "replace",
	"AT":      "at",
	"TOP":     "top",
	"BOTTOM":  "bottom",
	"HTML5":   "html5",
}

var builtinTagByCanonical = map[string]token.TypeTag{
	"CUSTOM_STYLE":   token.TagStyle,
	"CUSTOM_ELEMENT": token.TagElement,
	"CUSTOM_VAR":     token.TagVar,
	"TAG_HTML":       token.TagHTML,
	"TAG_JAVASCRIPT": token.TagJavaScript,
	"TAG_CHTL":       token.TagChtl,
	"TAG_CJMOD":      token.TagCJmod,
	"TAG_CONFIG":     token.TagConfig,
}

// SelectDefault implements the "first unnamed configuration is default"
// rule and "two anonymous [Configuration] blocks is a hard
// error", run once every file in a compile has been collected.
func SelectDefault(all map[string]*ast.Node, bag *diag.Bag) *ast.Node {
	var anonymous []*ast.Node
	for name, n := range all {
		if name == "" {
			anonymous = append(anonymous, n)
		}
	}
	if len(anonymous) > 1 {
		for _, n := range anonymous[1:] {
			bag.Errorf(diag.Configuration, diag.CodeConflictingDefault, "", n.Pos,
				"more than one anonymous [Configuration] block is active in this compile")
		}
	}
	if len(anonymous) > 0 {
		return anonymous[0]
	}
	return nil
}

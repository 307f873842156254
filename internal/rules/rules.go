// Package rules classifies transactions into categories with declarative,
// recursive rule trees.
//
// A rule tree is either a leaf mapping field names to candidate substrings,
// or a composite under the "and" / "or" keywords. Trees are compiled and
// validated once; matching never fails.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"budgetbook/internal/core"
)

const (
	KeywordAnd = "and"
	KeywordOr  = "or"

	DefaultUnknownIncome  = "unknown income"
	DefaultUnknownPayment = "unknown payment"
)

// Rule is a compiled rule tree. The implementations are Leaf, And and Or.
type Rule interface {
	Match(tx core.DatedTransaction) bool
	rule()
}

type (
	// Leaf matches when any field contains any of its candidates,
	// ignoring case. Several fields are alternatives, not requirements.
	Leaf struct {
		Terms []Term
	}

	Term struct {
		Field      core.Field
		Candidates []string
	}

	// And matches when every child matches. An empty And matches.
	And struct {
		Children []Rule
	}

	// Or matches when at least one child matches. An empty Or never matches.
	Or struct {
		Children []Rule
	}
)

func (Leaf) rule() {}
func (And) rule()  {}
func (Or) rule()   {}

func (l Leaf) Match(tx core.DatedTransaction) bool {
	for _, term := range l.Terms {
		value := strings.ToLower(tx.Field(term.Field))
		for _, c := range term.Candidates {
			if strings.Contains(value, c) {
				return true
			}
		}
	}
	return false
}

func (a And) Match(tx core.DatedTransaction) bool {
	for _, c := range a.Children {
		if !c.Match(tx) {
			return false
		}
	}
	return true
}

func (o Or) Match(tx core.DatedTransaction) bool {
	for _, c := range o.Children {
		if c.Match(tx) {
			return true
		}
	}
	return false
}

// Compile validates a raw rule tree and turns it into a Rule.
//
// Keys are either field names (value: list of substrings) or "and" / "or"
// (value: mapping of sub-rules, each key/value pair being one sub-rule).
// When "and" is present it decides the match; otherwise "or" does;
// otherwise the tree is a leaf. Every key is validated regardless.
func Compile(tree map[string]any) (Rule, error) {
	keys := sortedKeys(tree)
	var terms []Term
	for _, key := range keys {
		value := tree[key]
		switch key {
		case KeywordAnd, KeywordOr:
			if _, ok := value.(map[string]any); !ok {
				return nil, fmt.Errorf("%w: rule value %v for rule %q not allowed, use a mapping",
					core.ErrConfiguration, value, key)
			}
		default:
			field, ok := core.ParseField(key)
			if !ok {
				return nil, fmt.Errorf("%w: rule name %q not allowed, use one of %v",
					core.ErrConfiguration, key, allowedNames())
			}
			candidates, err := candidateList(key, value)
			if err != nil {
				return nil, err
			}
			terms = append(terms, Term{Field: field, Candidates: candidates})
		}
	}

	if sub, ok := tree[KeywordAnd]; ok {
		children, err := compileChildren(sub.(map[string]any))
		if err != nil {
			return nil, err
		}
		return And{Children: children}, nil
	}
	if sub, ok := tree[KeywordOr]; ok {
		children, err := compileChildren(sub.(map[string]any))
		if err != nil {
			return nil, err
		}
		return Or{Children: children}, nil
	}
	return Leaf{Terms: terms}, nil
}

func compileChildren(sub map[string]any) ([]Rule, error) {
	children := make([]Rule, 0, len(sub))
	for _, key := range sortedKeys(sub) {
		child, err := Compile(map[string]any{key: sub[key]})
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func candidateList(key string, value any) ([]string, error) {
	var raw []any
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	case []any:
		raw = v
	default:
		return nil, fmt.Errorf("%w: rule value %v for rule %q not allowed, use a list",
			core.ErrConfiguration, value, key)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch item.(type) {
		case map[string]any, []any, nil:
			return nil, fmt.Errorf("%w: candidate %v for rule %q must be a scalar",
				core.ErrConfiguration, item, key)
		}
		out = append(out, strings.ToLower(fmt.Sprint(item)))
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func allowedNames() []string {
	names := []string{KeywordAnd, KeywordOr}
	for _, f := range core.Fields {
		names = append(names, string(f))
	}
	return names
}

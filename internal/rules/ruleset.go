package rules

import (
	"fmt"
	"strings"

	"budgetbook/internal/core"
)

// Definition is one raw category entry as found in configuration.
type Definition struct {
	Name string
	Tree map[string]any
}

// Category is a compiled category entry.
type Category struct {
	Name string
	Rule Rule
}

// RuleSet is an ordered list of categories. Earlier categories win when
// several match. A RuleSet is immutable and safe for concurrent use.
type RuleSet struct {
	categories []Category
}

// NewRuleSet compiles definitions in order. Names must be unique and non-blank.
func NewRuleSet(defs []Definition) (*RuleSet, error) {
	rs := &RuleSet{categories: make([]Category, 0, len(defs))}
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("%w: category without a name", core.ErrConfiguration)
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("%w: category %q defined twice", core.ErrConfiguration, def.Name)
		}
		seen[def.Name] = struct{}{}

		rule, err := Compile(def.Tree)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", def.Name, err)
		}
		rs.categories = append(rs.categories, Category{Name: def.Name, Rule: rule})
	}
	return rs, nil
}

// FromRules builds a RuleSet from already compiled rules.
func FromRules(categories ...Category) *RuleSet {
	return &RuleSet{categories: append([]Category(nil), categories...)}
}

// Categories returns the category names in priority order.
func (rs *RuleSet) Categories() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, len(rs.categories))
	for i, c := range rs.categories {
		names[i] = c.Name
	}
	return names
}

// Match returns the first category whose rule matches tx.
func (rs *RuleSet) Match(tx core.DatedTransaction) (string, bool) {
	if rs == nil {
		return "", false
	}
	for _, c := range rs.categories {
		if c.Rule.Match(tx) {
			return c.Name, true
		}
	}
	return "", false
}

// Classify always returns a category: the first matching one, or a default
// derived from the sign of the amount.
func (rs *RuleSet) Classify(tx core.DatedTransaction) string {
	if name, ok := rs.Match(tx); ok {
		return name
	}
	if tx.IsIncome() {
		return DefaultUnknownIncome
	}
	return DefaultUnknownPayment
}

// CategoryFor keeps a category that is already assigned and classifies
// otherwise.
func (rs *RuleSet) CategoryFor(tx core.DatedTransaction) string {
	if tx.Category != "" {
		return tx.Category
	}
	return rs.Classify(tx)
}

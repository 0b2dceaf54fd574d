package qdex

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Declarative rule engine for the structural validator. Rules are pure: check
// inspects a value at a JSON-Pointer path and returns Issues, with no side
// effects, so rule trees are safe to share across concurrent validations.

type rule interface {
	check(path string, v any) Issues
}

type ruleFunc func(path string, v any) Issues

func (f ruleFunc) check(path string, v any) Issues { return f(path, v) }

// ---- object rules ----

// fieldSpec binds a field name to its rule; required fields yield an issue
// when absent.
type fieldSpec struct {
	name     string
	rule     rule
	required bool
}

func field(name string, r rule) fieldSpec { return fieldSpec{name: name, rule: r} }

func req(name string, r rule) fieldSpec { return fieldSpec{name: name, rule: r, required: true} }

// objectCheck runs cross-field constraints (choice, XOR) after per-field
// rules.
type objectCheck func(path string, m map[string]any) Issues

type objectRule struct {
	fields []fieldSpec
	checks []objectCheck
}

// object builds a rule over map-shaped values. Unknown keys pass through
// unvalidated: the wire format allows tool-specific extensions, so the
// validator checks shape, not closure. Fields are checked in sorted name
// order for deterministic issue ordering.
func object(specs ...any) rule {
	o := &objectRule{}
	for _, s := range specs {
		switch x := s.(type) {
		case fieldSpec:
			o.fields = append(o.fields, x)
		case objectCheck:
			o.checks = append(o.checks, x)
		default:
			panic(fmt.Sprintf("qdex: object spec must be fieldSpec or objectCheck, got %T", s))
		}
	}
	sort.Slice(o.fields, func(i, j int) bool { return o.fields[i].name < o.fields[j].name })
	return o
}

func (o *objectRule) check(path string, v any) Issues {
	m, ok := v.(map[string]any)
	if !ok {
		return Issues{issueAt(path, CodeInvalidType)}
	}
	var iss Issues
	for _, f := range o.fields {
		fv, present := m[f.name]
		if !present || fv == nil {
			if f.required {
				iss = AppendIssues(iss, issueAt(path+"/"+f.name, CodeRequired))
			}
			continue
		}
		if child := f.rule.check("", fv); len(child) > 0 {
			iss = AppendIssues(iss, rebase(path+"/"+f.name, child)...)
		}
	}
	for _, c := range o.checks {
		iss = AppendIssues(iss, c(path, m)...)
	}
	return iss
}

// group is object that also tolerates the blank string a contentless
// container element parses to (empty, or whitespace when the document is
// indented).
func group(specs ...any) rule {
	inner := object(specs...)
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
		return inner.check(path, v)
	})
}

// choice requires exactly one of the named fields to be present (non-nil).
func choice(names ...string) objectCheck {
	return func(path string, m map[string]any) Issues {
		n := 0
		for _, name := range names {
			if v, ok := m[name]; ok && v != nil {
				n++
			}
		}
		if n == 1 {
			return nil
		}
		it := issueAt(path, CodeChoiceViolation)
		it.Hint = fmt.Sprintf("want exactly one of %v, got %d", names, n)
		return Issues{it}
	}
}

// mutex requires exactly one of an exclusive pair to be present.
func mutex(a, b string) objectCheck {
	return func(path string, m map[string]any) Issues {
		n := 0
		for _, name := range [2]string{a, b} {
			if v, ok := m[name]; ok && v != nil {
				n++
			}
		}
		if n == 1 {
			return nil
		}
		it := issueAt(path, CodeXORViolation)
		it.Hint = fmt.Sprintf("want exactly one of %s or %s, got %d", a, b, n)
		return Issues{it}
	}
}

// ---- collection rules ----

// list validates an always-array position: the value must be a list, each
// item checked under its index.
func list(r rule) rule {
	return ruleFunc(func(path string, v any) Issues {
		items, ok := v.([]any)
		if !ok {
			it := issueAt(path, CodeInvalidType)
			it.Hint = "expected array"
			return Issues{it}
		}
		var iss Issues
		for i, item := range items {
			if child := r.check("", item); len(child) > 0 {
				iss = AppendIssues(iss, rebase(path+"/"+strconv.Itoa(i), child)...)
			}
		}
		return iss
	})
}

// exactlyOne validates a required-single reference position that the
// classification policy still represents as a list. Only the one-element
// list form is valid: a bare value would change shape across a round trip.
func exactlyOne(r rule) rule {
	return ruleFunc(func(path string, v any) Issues {
		items, ok := v.([]any)
		if !ok {
			it := issueAt(path, CodeInvalidType)
			it.Hint = "expected array"
			return Issues{it}
		}
		if len(items) != 1 {
			it := issueAt(path, CodeChoiceViolation)
			it.Hint = fmt.Sprintf("want exactly one entry, got %d", len(items))
			return Issues{it}
		}
		return rebase(path+"/0", r.check("", items[0]))
	})
}

// lazy defers rule construction until first use, so recursive definitions
// (Code-within-Code) do not expand infinitely at build time.
func lazy(build func() rule) rule {
	var once sync.Once
	var built rule
	return ruleFunc(func(path string, v any) Issues {
		once.Do(func() { built = build() })
		return built.check(path, v)
	})
}

// ---- scalar and format rules ----

// text accepts any scalar. Attribute coercion can surface free-form text
// fields (names, ids, paths) as numbers or booleans, so string-ish fields
// must accept every scalar form.
func text() rule {
	return ruleFunc(func(path string, v any) Issues {
		switch v.(type) {
		case string, bool, int64, float64, int, json.Number:
			return nil
		}
		return Issues{issueAt(path, CodeInvalidType)}
	})
}

func boolean() rule {
	return ruleFunc(func(path string, v any) Issues {
		switch x := v.(type) {
		case bool:
			return nil
		case string:
			if x == "true" || x == "false" {
				return nil
			}
		}
		it := issueAt(path, CodeInvalidType)
		it.Hint = "expected boolean"
		return Issues{it}
	})
}

func integer() rule {
	return ruleFunc(func(path string, v any) Issues {
		switch x := v.(type) {
		case int, int64:
			return nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				return nil
			}
		case json.Number:
			if _, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
				return nil
			}
		case string:
			if intPattern.MatchString(x) {
				return nil
			}
		}
		it := issueAt(path, CodeInvalidType)
		it.Hint = "expected whole number"
		return Issues{it}
	})
}

func float() rule {
	return ruleFunc(func(path string, v any) Issues {
		switch x := v.(type) {
		case int, int64:
			return nil
		case float64:
			if !math.IsInf(x, 0) && !math.IsNaN(x) {
				return nil
			}
		case json.Number:
			if f, err := x.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
				return nil
			}
		case string:
			if floatPattern.MatchString(x) || intPattern.MatchString(x) {
				return nil
			}
		}
		it := issueAt(path, CodeInvalidType)
		it.Hint = "expected finite number"
		return Issues{it}
	})
}

// enum accepts one of a closed string vocabulary.
func enum(vals ...string) rule {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok {
			if _, ok := set[s]; ok {
				return nil
			}
		}
		it := issueAt(path, CodeInvalidEnum)
		it.Hint = fmt.Sprintf("allowed: %v", vals)
		return Issues{it}
	})
}

// guid accepts the canonical 8-4-4-4-12 hexadecimal form, case-insensitive,
// optionally wrapped in braces.
func guid() rule {
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok && isCanonicalGUID(s) {
			return nil
		}
		it := issueAt(path, CodeInvalidFormat)
		it.Hint = "expected GUID"
		return Issues{it}
	})
}

func isCanonicalGUID(s string) bool {
	if len(s) == 38 && s[0] == '{' && s[37] == '}' {
		s = s[1:37]
	}
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// color accepts 3- or 6-digit hex RGB.
func color() rule {
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok && colorPattern.MatchString(s) {
			return nil
		}
		it := issueAt(path, CodeInvalidFormat)
		it.Hint = "expected #rgb or #rrggbb"
		return Issues{it}
	})
}

// date accepts calendar-valid YYYY-MM-DD.
func date() rule {
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok && len(s) == 10 {
			if _, err := time.Parse("2006-01-02", s); err == nil {
				return nil
			}
		}
		it := issueAt(path, CodeInvalidFormat)
		it.Hint = "expected YYYY-MM-DD"
		return Issues{it}
	})
}

// dateTimeLayouts cover RFC 3339 (Z or offset) and the zone-less form
// xsd:dateTime permits. Go's parser accepts optional fractional seconds for
// both layouts.
var dateTimeLayouts = [2]string{time.RFC3339, "2006-01-02T15:04:05"}

func dateTime() rule {
	return ruleFunc(func(path string, v any) Issues {
		if s, ok := v.(string); ok {
			for _, layout := range dateTimeLayouts {
				if _, err := time.Parse(layout, s); err == nil {
					return nil
				}
			}
		}
		it := issueAt(path, CodeInvalidFormat)
		it.Hint = "expected ISO 8601 datetime"
		return Issues{it}
	})
}

// reference validates the {targetGUID: Guid} pointer shape.
func reference() rule {
	return object(req(targetGUIDKey, guid()))
}

package qdex

import (
	"sort"

	"github.com/beevik/etree"
)

// Reverse conversion: JSON value -> element tree. Emission order is sorted by
// key for both attributes and child elements, so two semantically equal JSON
// objects with different insertion order serialize to byte-identical
// documents. Absent (nil) fields are skipped entirely; no empty elements are
// emitted for missing data.

// valueToElement converts one JSON value into an element named name.
// Returns nil when v is nil.
func valueToElement(name string, v any) *etree.Element {
	if v == nil {
		return nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		// Primitive at element position: text-only element. Empty text is
		// left out so the element self-closes.
		el := etree.NewElement(name)
		if s := valueToAttributeText(v); s != "" {
			el.SetText(s)
		}
		return el
	}

	el := etree.NewElement(name)

	// Attributes: the nested "attributes" map plus any flattened primitive
	// field that is attribute-eligible.
	attrs := map[string]any{}
	if nested, ok := m[attributesKey].(map[string]any); ok {
		for k, av := range nested {
			attrs[k] = av
		}
	}
	childKeys := make([]string, 0, len(m))
	for k, fv := range m {
		if k == attributesKey || k == textKey || fv == nil {
			continue
		}
		switch fv.(type) {
		case map[string]any, []any:
			childKeys = append(childKeys, k)
		default:
			// Element-cased unknown keys also stay elements, so vendor
			// extension elements survive the round trip.
			if isForceElementField(k) || isContainerElement(k) || isElementCased(k) {
				childKeys = append(childKeys, k)
			} else {
				attrs[k] = fv
			}
		}
	}

	attrKeys := make([]string, 0, len(attrs))
	for k := range attrs {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	for _, k := range attrKeys {
		if attrs[k] == nil {
			continue
		}
		el.CreateAttr(k, valueToAttributeText(attrs[k]))
	}

	if t, ok := m[textKey]; ok && t != nil {
		el.SetText(valueToAttributeText(t))
	}

	sort.Strings(childKeys)
	for _, k := range childKeys {
		switch fv := m[k].(type) {
		case []any:
			// Arrays expand to one element per item, same tag repeated.
			for _, item := range fv {
				if child := valueToElement(k, item); child != nil {
					el.AddChild(child)
				}
			}
		default:
			if child := valueToElement(k, fv); child != nil {
				el.AddChild(child)
			}
		}
	}

	return el
}

package qdex

import (
	"strings"

	"github.com/beevik/etree"
)

// Forward conversion: element tree -> JSON value. A single recursive function
// with no shared mutable state, safe to invoke concurrently on independent
// inputs.

// innerText concatenates every character-data child of el, preserving the
// exact content (CDATA sections included, no trimming).
func innerText(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

// elementToValue converts one element into its JSON representation.
//
// Reference-style elements short-circuit to {targetGUID: <attr>}. An element
// with no attributes and only text becomes that text verbatim; a completely
// empty element becomes "". Everything else becomes an object: attributes are
// coerced and placed per the classification policy, same-tag children
// accumulate into per-tag lists that collapse to a single value unless the
// tag is an always-array position or occurs more than once, and
// non-whitespace text on anything other than a simple value element is
// retained under the #text marker. Whitespace-only text between child
// elements is ignored.
func elementToValue(el *etree.Element) any {
	if isReferenceElement(el.Tag) {
		target := ""
		if a := el.SelectAttr(targetGUIDKey); a != nil {
			target = a.Value
		}
		return map[string]any{targetGUIDKey: target}
	}

	children := el.ChildElements()
	if len(el.Attr) == 0 && len(children) == 0 {
		// Covers both the simple value element (Description,
		// PlainTextContent, single-value fields) and the empty element.
		return innerText(el)
	}

	obj := make(map[string]any, len(el.Attr)+len(children))

	if len(el.Attr) > 0 {
		var attrDst map[string]any
		if isAttributesWrapped(el.Tag) {
			attrDst = make(map[string]any, len(el.Attr))
			obj[attributesKey] = attrDst
		} else {
			attrDst = obj
		}
		for _, a := range el.Attr {
			// FullKey keeps namespace prefixes (xmlns, xsi:...) intact.
			attrDst[a.FullKey()] = attributeToValue(a.Value)
		}
	}

	// Accumulate same-tag children in document order per tag.
	order := make([]string, 0, len(children))
	byTag := make(map[string][]any, len(children))
	for _, child := range children {
		if _, seen := byTag[child.Tag]; !seen {
			order = append(order, child.Tag)
		}
		byTag[child.Tag] = append(byTag[child.Tag], elementToValue(child))
	}
	for _, tag := range order {
		vals := byTag[tag]
		if len(vals) == 1 && !isAlwaysArray(tag) {
			obj[tag] = vals[0]
			continue
		}
		obj[tag] = vals
	}

	if text := innerText(el); strings.TrimSpace(text) != "" {
		obj[textKey] = text
	}

	return obj
}

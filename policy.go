package qdex

import (
	"unicode"
	"unicode/utf8"
)

// Element classification policy. Both converters consult the same tables so
// the forward and reverse conversions are exact inverses.

// attributesKey nests XML attributes in JSON for elements listed in
// attributesWrapped; textKey retains non-whitespace text when an element has
// both text and child elements.
const (
	attributesKey = "attributes"
	textKey       = "#text"
)

// alwaysArray lists element names that are schema-known repeatable positions
// (maxOccurs unbounded). Their JSON form is always a list, even for a single
// occurrence, so the shape never depends on count.
var alwaysArray = map[string]struct{}{
	"User":                {},
	"Code":                {},
	"Variable":            {},
	"Case":                {},
	"TextSource":          {},
	"PictureSource":       {},
	"PDFSource":           {},
	"AudioSource":         {},
	"VideoSource":         {},
	"Note":                {},
	"Link":                {},
	"Set":                 {},
	"Graph":               {},
	"Vertex":              {},
	"Edge":                {},
	"NoteRef":             {},
	"CodeRef":             {},
	"SourceRef":           {},
	"SelectionRef":        {},
	"MemberCode":          {},
	"MemberSource":        {},
	"MemberNote":          {},
	"VariableValue":       {},
	"Coding":              {},
	"PlainTextSelection":  {},
	"PictureSelection":    {},
	"PDFSelection":        {},
	"AudioSelection":      {},
	"VideoSelection":      {},
	"Transcript":          {},
	"SyncPoint":           {},
	"TranscriptSelection": {},
}

// attributesWrapped lists elements whose XML attributes live under a nested
// "attributes" key instead of being flattened onto the JSON object. Code owns
// child Codes that would otherwise collide with its own attribute namespace;
// Project mirrors it at the root.
var attributesWrapped = map[string]struct{}{
	"Project": {},
	"Code":    {},
}

// forceElementField lists field names that are emitted as child elements even
// though their value is a primitive, overriding the default
// "primitive => attribute" placement.
var forceElementField = map[string]struct{}{
	"Description":      {},
	"TextDescription":  {},
	"PlainTextContent": {},
	"TextValue":        {},
	"BooleanValue":     {},
	"IntegerValue":     {},
	"FloatValue":       {},
	"DateValue":        {},
	"DateTimeValue":    {},
}

// containerElements lists the grouping elements that hold entity collections.
// A container that parsed to blank text (no members) must go back out as an
// element, never as an attribute.
var containerElements = map[string]struct{}{
	"Users":     {},
	"CodeBook":  {},
	"Codes":     {},
	"Variables": {},
	"Cases":     {},
	"Sources":   {},
	"Notes":     {},
	"Links":     {},
	"Sets":      {},
	"Graphs":    {},
}

// referenceElements lists the lightweight pointer elements that take the
// forward converter's fast path. They are the most frequent nodes in
// realistic documents and need no generic processing.
var referenceElements = map[string]struct{}{
	"CodeRef":      {},
	"NoteRef":      {},
	"SourceRef":    {},
	"SelectionRef": {},
	"VariableRef":  {},
	"MemberCode":   {},
	"MemberSource": {},
	"MemberNote":   {},
}

// targetGUIDKey is the attribute (and JSON key) naming the entity a reference
// points at. The JSON key mirrors the wire spelling so references survive the
// round trip unchanged.
const targetGUIDKey = "targetGUID"

func isAlwaysArray(tag string) bool {
	_, ok := alwaysArray[tag]
	return ok
}

func isAttributesWrapped(tag string) bool {
	_, ok := attributesWrapped[tag]
	return ok
}

func isForceElementField(name string) bool {
	_, ok := forceElementField[name]
	return ok
}

func isReferenceElement(tag string) bool {
	_, ok := referenceElements[tag]
	return ok
}

func isContainerElement(tag string) bool {
	_, ok := containerElements[tag]
	return ok
}

// isElementCased reports whether a name follows the element naming
// convention (leading capital). QDE attribute names are lowerCamel, so an
// unknown flattened primitive with a capitalized name originated as a child
// element and must be re-emitted as one.
func isElementCased(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

package qdex

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/openqda/qdex/xmltree"
)

// envelopeKey wraps the project object in API results and is accepted
// (optionally) on the way in.
const envelopeKey = "qde"

// rootTag is the required root element of every QDE document.
const rootTag = "Project"

// ParseDocument converts QDE document text into the validated JSON
// representation, returned as {"qde": <project object>}.
//
// Malformed markup yields Issues with code parse_error carrying the parser
// diagnostics; shape/format violations yield Issues with the failing field
// path. No partial results: either the full validated value is returned, or
// none is.
func ParseDocument(text string) (map[string]any, error) {
	root, err := xmltree.ParseString(text)
	if err != nil {
		return nil, Issues{{
			Path:    "/",
			Code:    CodeParseError,
			Message: messageFor(CodeParseError),
			Hint:    err.Error(),
			Cause:   err,
		}}
	}
	if root.Tag != rootTag {
		it := issueAt("/"+envelopeKey, CodeInvalidType)
		it.Hint = fmt.Sprintf("root element must be %s, got %s", rootTag, root.Tag)
		return nil, Issues{it}
	}
	v := elementToValue(root)
	if iss := validateDocument(v); len(iss) > 0 {
		return nil, rebase("/"+envelopeKey, iss)
	}
	return map[string]any{envelopeKey: v.(map[string]any)}, nil
}

// BuildDocument converts a project object (or a {"qde": <project>} envelope)
// into QDE document text, prefixed with the XML declaration. The value is
// validated before serialization; attribute and child-element order in the
// output is sorted, so semantically equal inputs produce byte-identical
// text.
func BuildDocument(v any) (string, error) {
	project, iss := unwrapProject(v)
	if len(iss) > 0 {
		return "", iss
	}
	if iss := validateDocument(project); len(iss) > 0 {
		return "", rebase("/"+envelopeKey, iss)
	}
	return xmltree.Serialize(valueToElement(rootTag, project))
}

// Validate checks a project object (envelope-tolerant) against the QDE shape
// rules without converting it. Returns nil when the value is valid.
func Validate(v any) error {
	project, iss := unwrapProject(v)
	if len(iss) > 0 {
		return iss
	}
	if iss := validateDocument(project); len(iss) > 0 {
		return rebase("/"+envelopeKey, iss)
	}
	return nil
}

// unwrapProject accepts either the bare project object or the envelope form.
// A map is the envelope only when qde is its sole key; a project carrying a
// vendor qde extension alongside other fields is a bare project.
func unwrapProject(v any) (map[string]any, Issues) {
	m, ok := v.(map[string]any)
	if !ok {
		it := issueAt("/", CodeInputShape)
		it.Hint = fmt.Sprintf("expected object, got %T", v)
		return nil, Issues{it}
	}
	if len(m) != 1 {
		return m, nil
	}
	q, ok := m[envelopeKey]
	if !ok {
		return m, nil
	}
	qm, ok := q.(map[string]any)
	if !ok {
		it := issueAt("/"+envelopeKey, CodeInputShape)
		it.Hint = fmt.Sprintf("expected object, got %T", q)
		return nil, Issues{it}
	}
	return qm, nil
}

// ---- byte-level helpers ----

// ParseDocumentJSON is ParseDocument followed by a JSON encoding of the
// result.
func ParseDocumentJSON(text string) ([]byte, error) {
	v, err := ParseDocument(text)
	if err != nil {
		return nil, err
	}
	return gojson.Marshal(v)
}

// BuildDocumentJSON decodes JSON bytes and builds document text from them.
// Numbers are decoded as json.Number so their source form survives into
// attribute text unchanged.
func BuildDocumentJSON(data []byte) (string, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", Issues{{
			Path:    "/",
			Code:    CodeParseError,
			Message: "input is not valid JSON",
			Hint:    err.Error(),
			Cause:   err,
		}}
	}
	return BuildDocument(v)
}

// BuildDocumentYAML decodes YAML bytes and builds document text from them.
func BuildDocumentYAML(data []byte) (string, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return "", Issues{{
			Path:    "/",
			Code:    CodeParseError,
			Message: "input is not valid YAML",
			Hint:    err.Error(),
			Cause:   err,
		}}
	}
	return BuildDocument(normalizeYAML(v))
}

// normalizeYAML rewrites YAML's map shapes into the map[string]any tree the
// converters and validator expect.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, mv := range x {
			out[k] = normalizeYAML(mv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, mv := range x {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(mv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, iv := range x {
			out[i] = normalizeYAML(iv)
		}
		return out
	default:
		return v
	}
}

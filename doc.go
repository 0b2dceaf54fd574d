// Package qdex converts between the QDE XML interchange format for
// qualitative-research projects and an equivalent JSON representation.
//
// It provides:
//
// - A schema-aware bidirectional tree codec (ParseDocument/BuildDocument)
// - A declarative structural validator with a stable error model via Issues
//   (JSON Pointer, code, message)
// - Deterministic serialization: attribute and child-element order is sorted
//   so semantically equal inputs produce byte-identical documents
// - Byte-level helpers for JSON and YAML inputs (ParseDocumentJSON,
//   BuildDocumentJSON, BuildDocumentYAML)
//
// Design policy:
// - Keep the public API in the root package; the XML tree adapter lives under
//   xmltree/ and the CLI under cmd/qdex.
// - Every conversion is a pure tree transformation; no component retains
//   mutable cross-call state, so all functions are safe for concurrent use.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	v, err := qdex.ParseDocument(text)       // {"qde": project}
//	text, err := qdex.BuildDocument(v)       // XML with declaration line
//	err := qdex.Validate(project)            // shape/format checks only
package qdex

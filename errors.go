package qdex

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired        = "required"
	CodeInvalidType     = "invalid_type"
	CodeInvalidFormat   = "invalid_format"
	CodeInvalidEnum     = "invalid_enum"
	CodeChoiceViolation = "choice_violation"
	CodeXORViolation    = "xor_violation"
	CodeParseError      = "parse_error"
	CodeInputShape      = "input_shape"
)

// codeMessages supplies the default human-readable message per code.
var codeMessages = map[string]string{
	CodeRequired:        "required field is missing",
	CodeInvalidType:     "value has the wrong type",
	CodeInvalidFormat:   "value does not match the required format",
	CodeInvalidEnum:     "value is outside the allowed vocabulary",
	CodeChoiceViolation: "exactly one of the choice fields must be present",
	CodeXORViolation:    "exactly one of the exclusive pair must be present",
	CodeParseError:      "document is not well-formed",
	CodeInputShape:      "input is not an object",
}

// messageFor returns the default message for a code, or the code itself when
// no entry exists.
func messageFor(code string) string {
	if m, ok := codeMessages[code]; ok {
		return m
	}
	return code
}

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /qde/CodeBook/Codes/Code/0/attributes/guid).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: offending value, expected format, etc.
	Cause   error  // Optional: underlying error (parser diagnostics).
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_format at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// issueAt builds an Issue with the default message for its code.
func issueAt(path, code string) Issue {
	return Issue{Path: path, Code: code, Message: messageFor(code)}
}

// rebase prefixes child issue paths with base so nested rule groups report
// full document paths.
func rebase(base string, child Issues) Issues {
	var out Issues
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		out = AppendIssues(out, Issue{Path: p, Code: it.Code, Message: it.Message, Hint: it.Hint, Cause: it.Cause})
	}
	return out
}

package qdex

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Attribute text <-> typed value coercion. attributeToValue cannot fail: the
// numeric patterns pre-validate the text, so the strconv calls below never
// error on matched input.

var (
	floatPattern = regexp.MustCompile(`^[-+]?[0-9]+\.[0-9]+$`)
	intPattern   = regexp.MustCompile(`^[-+]?[0-9]+$`)
)

// literalCache short-circuits the most common attribute tokens so repeated
// parsing is avoided on large documents.
var literalCache = map[string]any{
	"true":  true,
	"false": false,
	"0":     int64(0),
	"1":     int64(1),
	"-1":    int64(-1),
	"":      "",
}

// attributeToValue converts XML attribute text to a typed JSON value.
// Order of tests: literal cache, float pattern, integer pattern, string.
func attributeToValue(raw string) any {
	if v, ok := literalCache[raw]; ok {
		return v
	}
	if floatPattern.MatchString(raw) {
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	}
	if intPattern.MatchString(raw) {
		n, _ := strconv.ParseInt(raw, 10, 64)
		return n
	}
	return raw
}

// valueToAttributeText is the inverse stringification: booleans as
// "true"/"false", numbers via locale-independent decimal forms, strings
// verbatim. json.Number passes through as written in the source document.
func valueToAttributeText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

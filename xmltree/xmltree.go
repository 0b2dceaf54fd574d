// Package xmltree is the tree adapter between document text and the generic
// element tree the converters walk. It wraps beevik/etree so the rest of the
// module never touches raw markup: parsing yields an element tree with
// ordered attributes and children, and serialization handles escaping and
// the declaration line.
package xmltree

import (
	"errors"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Declaration is the required first line of every generated document.
const Declaration = `version="1.0" encoding="utf-8"`

// MaxDepth bounds element nesting. Conversion and validation recurse over
// the tree, so untrusted input must not be allowed unbounded depth.
const MaxDepth = 1000

// ErrNoRoot indicates a well-formed prolog with no root element.
var ErrNoRoot = errors.New("xmltree: document has no root element")

// ErrTooDeep indicates element nesting beyond MaxDepth.
var ErrTooDeep = errors.New("xmltree: element nesting exceeds limit")

// Parse reads document text into an element tree. Documents declaring a
// legacy charset are transcoded to UTF-8 on the way in.
func Parse(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}
	if exceedsDepth(root, MaxDepth) {
		return nil, ErrTooDeep
	}
	return root, nil
}

// exceedsDepth walks the tree with an explicit stack so the check itself
// cannot overflow the call stack.
func exceedsDepth(root *etree.Element, limit int) bool {
	type entry struct {
		el    *etree.Element
		depth int
	}
	stack := []entry{{el: root, depth: 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.depth > limit {
			return true
		}
		for _, child := range e.el.ChildElements() {
			stack = append(stack, entry{el: child, depth: e.depth + 1})
		}
	}
	return false
}

// ParseString is Parse over a string.
func ParseString(text string) (*etree.Element, error) {
	return Parse([]byte(text))
}

// Serialize writes an element tree back to document text, prefixed with the
// XML declaration. Text and attribute values are canonically escaped. The
// element is attached to a fresh document for writing.
func Serialize(root *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	doc.CreateProcInst("xml", Declaration)
	doc.AddChild(root)
	return doc.WriteToString()
}

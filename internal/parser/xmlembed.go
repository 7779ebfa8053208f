package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

// Element is one XML element's attributes, keyed by lower-cased name.
type Element map[string]string

// Attr returns the first non-empty attribute among names.
func (e Element) Attr(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(e[strings.ToLower(n)]); v != "" {
			return v
		}
	}
	return ""
}

var jsStringUnescaper = strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\/`, `/`, `\n`, "\n", `\t`, "\t", `\r`, "")

// EmbeddedXML locates an XML document rooted at root inside a script
// variable (var x = '<root>…</root>';) or inline in the page and returns it
// unwrapped.
func EmbeddedXML(text, root string) (string, bool) {
	if doc, ok := sliceElement(text, root); ok {
		return jsStringUnescaper.Replace(doc), true
	}
	// Some exports HTML-escape the blob inside the script body.
	if doc, ok := sliceElement(html.UnescapeString(text), root); ok {
		return jsStringUnescaper.Replace(doc), true
	}
	return "", false
}

func sliceElement(text, root string) (string, bool) {
	start := strings.Index(text, "<"+root)
	if start < 0 {
		return "", false
	}
	closing := "</" + root + ">"
	end := strings.LastIndex(text, closing)
	if end < start {
		// Self-closing root: an empty document.
		if i := strings.Index(text[start:], "/>"); i >= 0 {
			return text[start : start+i+2], true
		}
		return "", false
	}
	return text[start : end+len(closing)], true
}

// ParseEmbeddedXML extracts the XML document rooted at root and returns the
// attributes of every element named elem, in document order. A missing or
// malformed document is a schema error.
func ParseEmbeddedXML(text, root, elem string) ([]Element, error) {
	doc, ok := EmbeddedXML(text, root)
	if !ok {
		return nil, schemaErrorf("xml", "no <%s> document found", root)
	}

	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.Entity = xml.HTMLEntity

	var out []Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SchemaError{Format: "xml", Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, elem) {
			continue
		}
		el := make(Element, len(se.Attr))
		for _, a := range se.Attr {
			el[strings.ToLower(a.Name.Local)] = a.Value
		}
		out = append(out, el)
	}
	if out == nil {
		out = []Element{}
	}
	return out, nil
}

// MustAttr is Attr that fails when every name is missing.
func (e Element) MustAttr(names ...string) (string, error) {
	if v := e.Attr(names...); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing attribute %s", strings.Join(names, "/"))
}

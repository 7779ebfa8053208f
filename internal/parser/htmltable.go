package parser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseTable reads the first <table> of an HTML document, skips its header
// row and maps every remaining row by cell position. Rows whose cell count
// differs from cells are skipped; a row rejected by mapRow is skipped too.
func ParseTable[T any](text string, cells int, mapRow func(cells []string) (T, error)) (Result[T], error) {
	var res Result[T]

	rows, err := TableRows(text)
	if err != nil {
		return res, err
	}
	if len(rows) == 0 {
		return res, nil
	}

	for i, row := range rows[1:] {
		res.Rows++
		if len(row) != cells {
			res.warnf("table row %d: expected %d cells, got %d", i+1, cells, len(row))
			continue
		}
		v, err := mapRow(row)
		if err != nil {
			res.warnf("table row %d: %v", i+1, err)
			continue
		}
		res.Data = append(res.Data, v)
	}
	return res, nil
}

// TableRows returns the cell texts of every row of the first table,
// header row included.
func TableRows(text string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &SchemaError{Format: "html", Err: err}
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, schemaErrorf("html", "no table element found")
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// Nested tables belong to a cell, not to this table.
				continue
			case atom.Tr:
				rows = append(rows, rowCells(c))
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows, nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, nodeText(c))
		}
	}
	return cells
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// nodeText returns the visible text below n with whitespace collapsed.
// <br> counts as a space.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteString(" ")
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}

// nodeLines returns the text below n split at <br> and block boundaries.
func nodeLines(n *html.Node) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := normalizeSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			cur.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			flush()
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Div || n.DataAtom == atom.P) {
			flush()
		}
	}
	walk(n)
	flush()
	return lines
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

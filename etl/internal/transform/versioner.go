package transform

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/ecfr/etl/internal/store"
)

// The versioner document nests DIV elements by level:
//
//	DIV1 = Title, DIV3 = Chapter, DIV4 = Subchapter, DIV5 = Part,
//	DIV8 = Section. DIV2 (subtitle), DIV6/DIV7 (subpart, subject group)
//	sit between these levels and are traversed through, not emitted.
//
// Each DIV carries its code in the N attribute and its human-readable
// heading in a HEAD child. Body text lives in P elements under the section.
const (
	divTitle      = "DIV1"
	divChapter    = "DIV3"
	divSubchapter = "DIV4"
	divPart       = "DIV5"
	divSection    = "DIV8"
	headElem      = "HEAD"
	paraElem      = "P"
)

// Sections flattens a versioner XML document into one row per section.
// A branch missing any nesting level contributes no rows; that is empty
// iteration, not an error. Malformed XML fails with ErrParse.
func Sections(data []byte) ([]store.Section, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, err
	}

	var out []store.Section
	for _, title := range root.descendants(divTitle) {
		titleNumber := title.attr("N")
		titleHead := CleanText(title.childText(headElem))

		for _, chapter := range title.descendants(divChapter) {
			chapterNumber := chapter.attr("N")
			chapterHead := CleanText(chapter.childText(headElem))

			for _, subchapter := range chapter.descendants(divSubchapter) {
				subchapterNumber := subchapter.attr("N")
				subchapterHead := CleanText(subchapter.childText(headElem))

				for _, part := range subchapter.descendants(divPart) {
					partNumber := part.attr("N")
					partHead := CleanText(part.childText(headElem))

					for _, section := range part.descendants(divSection) {
						out = append(out, store.Section{
							TitleNumber:      titleNumber,
							TitleHead:        titleHead,
							ChapterNumber:    chapterNumber,
							ChapterHead:      chapterHead,
							SubchapterNumber: subchapterNumber,
							SubchapterHead:   subchapterHead,
							PartNumber:       partNumber,
							PartHead:         partHead,
							SectionNumber:    section.attr("N"),
							SectionTitle:     CleanText(section.childText(headElem)),
							Body:             sectionBody(section),
						})
					}
				}
			}
		}
	}
	return out, nil
}

// sectionBody joins the cleaned text of every paragraph under the section,
// in document order, with single spaces. Never null: a section without
// paragraphs has an empty body.
func sectionBody(section *xmlNode) string {
	var parts []string
	for _, p := range section.descendants(paraElem) {
		if t := CleanText(p.text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// xmlNode is a lightweight document tree node. content preserves document
// order and interleaving of character data and child elements.
type xmlNode struct {
	name    string
	attrs   map[string]string
	content []any // string (character data) or *xmlNode
}

func (n *xmlNode) attr(name string) string { return n.attrs[name] }

// childText returns the full text of the first direct child with the given
// name, or "" if absent.
func (n *xmlNode) childText(name string) string {
	for _, c := range n.content {
		if el, ok := c.(*xmlNode); ok && el.name == name {
			return el.text()
		}
	}
	return ""
}

// descendants returns all elements with the given name at any depth below n,
// in document order. n itself is never included.
func (n *xmlNode) descendants(name string) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for _, c := range cur.content {
			el, ok := c.(*xmlNode)
			if !ok {
				continue
			}
			if el.name == name {
				out = append(out, el)
			}
			walk(el)
		}
	}
	walk(n)
	return out
}

// text returns all character data in n's subtree, in document order, joined
// with single spaces.
func (n *xmlNode) text() string {
	var chunks []string
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for _, c := range cur.content {
			switch v := c.(type) {
			case string:
				chunks = append(chunks, v)
			case *xmlNode:
				walk(v)
			}
		}
	}
	walk(n)
	return strings.Join(chunks, " ")
}

// parseXML builds the document tree. The returned node is a synthetic root
// whose content holds the document element, so descendants() on it matches
// every element including the document element itself.
func parseXML(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity

	root := &xmlNode{}
	stack := []*xmlNode{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			parent := stack[len(stack)-1]
			parent.content = append(parent.content, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent := stack[len(stack)-1]
			parent.content = append(parent.content, string(t))
		}
	}

	for _, c := range root.content {
		if _, ok := c.(*xmlNode); ok {
			return root, nil
		}
	}
	return nil, fmt.Errorf("%w: no document element", ErrParse)
}

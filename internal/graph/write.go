package graph

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// edit replaces src[from:to] with text.
type edit struct {
	from, to int
	text     string
}

// span locates an element's closing point: close is where its end tag
// starts, selfClosing is set for <x/> whose start tag ends at close.
type span struct {
	close       int
	selfClosing bool
	seen        bool
}

type nodeSpan struct {
	id        string
	values    map[string][2]int // attribute ref -> [start, end) of its attvalue
	attvalues span
	node      span
}

// SetAttributes copies the GEXF document src to w with node attribute values
// set. values maps a node id to attribute titles and their new values. Titles
// missing from the node attribute declarations are declared as strings, and
// existing values of a title are replaced in place. All other bytes of the
// document are copied unchanged.
func SetAttributes(src []byte, w io.Writer, values map[string]map[string]string) error {
	d := xml.NewDecoder(bytes.NewReader(src))

	var (
		stack       []string
		graphOpen   = -1
		declBlock   span
		inDecl      bool
		declIDs     = make(map[string]bool)
		declByTitle = make(map[string]string)
		nodes       []*nodeSpan
		cur         *nodeSpan
		attStart    = -1
		attRef      string
	)

	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		start := int(d.InputOffset())
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("invalid GEXF: %w", err)
		}
		end := int(d.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "graph":
				if graphOpen < 0 {
					graphOpen = end
				}
			case "attributes":
				if parent() == "graph" && !declBlock.seen {
					if class := attr(t, "class"); class == "" || class == "node" {
						inDecl = true
					}
				}
			case "attribute":
				if inDecl {
					id := attr(t, "id")
					title := attr(t, "title")
					if title == "" {
						title = id
					}
					declIDs[id] = true
					if _, ok := declByTitle[title]; !ok {
						declByTitle[title] = id
					}
				}
			case "node":
				if parent() == "nodes" {
					cur = &nodeSpan{id: attr(t, "id"), values: make(map[string][2]int)}
				}
			case "attvalue":
				if cur != nil && parent() == "attvalues" {
					attStart = start
					attRef = attr(t, "for")
					if attRef == "" {
						attRef = attr(t, "id")
					}
				}
			}

		case xml.EndElement:
			closing := span{close: start, selfClosing: start == end, seen: true}
			switch t.Name.Local {
			case "attributes":
				if inDecl {
					declBlock = closing
					inDecl = false
				}
			case "attvalue":
				if cur != nil && attStart >= 0 {
					if _, dup := cur.values[attRef]; !dup {
						cur.values[attRef] = [2]int{attStart, end}
					}
					attStart = -1
				}
			case "attvalues":
				if cur != nil {
					cur.attvalues = closing
				}
			case "node":
				if cur != nil {
					cur.node = closing
					nodes = append(nodes, cur)
					cur = nil
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if graphOpen < 0 {
		return errors.New("invalid GEXF: no graph element")
	}

	// declare missing titles
	var titles []string
	seenTitle := make(map[string]bool)
	for _, vs := range values {
		for title := range vs {
			if !seenTitle[title] {
				seenTitle[title] = true
				titles = append(titles, title)
			}
		}
	}
	sort.Strings(titles)

	var edits []edit
	var decls strings.Builder
	for _, title := range titles {
		if _, ok := declByTitle[title]; ok {
			continue
		}
		id := freeID(title, declIDs)
		declIDs[id] = true
		declByTitle[title] = id
		fmt.Fprintf(&decls, `<attribute id="%s" title="%s" type="string"/>`, escape(id), escape(title))
	}
	if decls.Len() > 0 {
		if declBlock.seen {
			edits = append(edits, closeInsert(src, declBlock, "attributes", decls.String()))
		} else {
			edits = append(edits, edit{from: graphOpen, to: graphOpen,
				text: `<attributes class="node">` + decls.String() + `</attributes>`})
		}
	}

	for _, n := range nodes {
		vs, ok := values[n.id]
		if !ok {
			continue
		}
		var added strings.Builder
		for _, title := range titles {
			v, ok := vs[title]
			if !ok {
				continue
			}
			id := declByTitle[title]
			elem := fmt.Sprintf(`<attvalue for="%s" value="%s"/>`, escape(id), escape(v))
			if pos, ok := n.values[id]; ok {
				edits = append(edits, edit{from: pos[0], to: pos[1], text: elem})
				continue
			}
			added.WriteString(elem)
		}
		if added.Len() == 0 {
			continue
		}
		if n.attvalues.seen {
			edits = append(edits, closeInsert(src, n.attvalues, "attvalues", added.String()))
		} else {
			edits = append(edits, closeInsert(src, n.node, "node", "<attvalues>"+added.String()+"</attvalues>"))
		}
	}

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].from < edits[j].from })

	pos := 0
	for _, e := range edits {
		if _, err := w.Write(src[pos:e.from]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.text); err != nil {
			return err
		}
		pos = e.to
	}
	_, err := w.Write(src[pos:])
	return err
}

// closeInsert inserts text as the last content of an element, opening up a
// self-closing tag when needed.
func closeInsert(src []byte, s span, name, text string) edit {
	if s.selfClosing && s.close >= 2 && string(src[s.close-2:s.close]) == "/>" {
		return edit{from: s.close - 2, to: s.close, text: ">" + text + "</" + name + ">"}
	}
	return edit{from: s.close, to: s.close, text: text}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// freeID returns title, or title with a numeric suffix, unused in taken.
func freeID(title string, taken map[string]bool) string {
	if !taken[title] {
		return title
	}
	for i := 2; ; i++ {
		id := title + "_" + strconv.Itoa(i)
		if !taken[id] {
			return id
		}
	}
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

package policies

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// maxChunkChars bounds a passage in bytes. Longer sections are split on block
// boundaries.
const maxChunkChars = 1200

// Section is the text under one heading trail.
type Section struct {
	Trail []string
	Body  string
}

var markdown = goldmark.New()

// Sections splits a Markdown document into heading-scoped sections. Text
// before the first heading gets an empty trail.
func Sections(src []byte) []Section {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var (
		sections []Section
		trail    []string
		levels   []int
		blocks   []string
	)
	flush := func() {
		body := strings.TrimSpace(strings.Join(blocks, "\n\n"))
		if body != "" {
			sections = append(sections, Section{Trail: append([]string(nil), trail...), Body: body})
		}
		blocks = blocks[:0]
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			if t := blockText(n, src, ""); t != "" {
				blocks = append(blocks, t)
			}
			continue
		}

		flush()
		for len(levels) > 0 && levels[len(levels)-1] >= h.Level {
			levels = levels[:len(levels)-1]
			trail = trail[:len(trail)-1]
		}
		levels = append(levels, h.Level)
		trail = append(trail, strings.TrimSpace(linesText(h, src)))
	}
	flush()
	return sections
}

// blockText renders a block node as plain lines. List items are bulleted.
func blockText(n ast.Node, src []byte, indent string) string {
	if n.Type() == ast.TypeBlock && n.Lines() != nil && n.Lines().Len() > 0 {
		return indent + strings.TrimSpace(linesText(n, src))
	}

	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var t string
		if _, ok := c.(*ast.ListItem); ok {
			t = strings.TrimSpace(blockText(c, src, ""))
			if t != "" {
				t = indent + "- " + strings.ReplaceAll(t, "\n", "\n"+indent+"  ")
			}
		} else {
			t = blockText(c, src, indent)
		}
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// Chunk converts one policy document into vector store documents, one per
// section or part of a long section.
func Chunk(source string, src []byte, ingestedAt time.Time) []vectordb.Document {
	var docs []vectordb.Document
	for _, sec := range Sections(src) {
		label := strings.Join(sec.Trail, " > ")
		for _, part := range split(sec.Body, maxChunkChars) {
			content := part
			if label != "" {
				content = label + "\n\n" + part
			}
			idx := len(docs)
			docs = append(docs, vectordb.Document{
				ID:      fmt.Sprintf("%s#%d", source, idx),
				Content: content,
				Metadata: vectordb.DocumentMetadata{
					Source:      source,
					Section:     label,
					Chunk:       idx,
					ContentHash: hashBytes([]byte(content)),
					IngestedAt:  ingestedAt,
				},
			})
		}
	}
	return docs
}

// split breaks body into pieces of at most limit bytes on line boundaries.
// A single longer line is cut at a rune boundary.
func split(body string, limit int) []string {
	if len(body) <= limit {
		return []string{body}
	}
	var (
		out []string
		cur strings.Builder
	)
	for _, para := range strings.Split(body, "\n") {
		if cur.Len() > 0 && cur.Len()+len(para)+1 > limit {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		for len(para) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(para[cut]) {
				cut--
			}
			out = append(out, para[:cut])
			para = para[cut:]
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(para)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

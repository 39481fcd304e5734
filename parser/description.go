package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// strippedElements never contribute text to a description.
const strippedElements = "img, script, style, noscript"

var (
	textWhitespace = regexp.MustCompile(`\s+`)
	whitespaceRun  = regexp.MustCompile(`\s{2,}`)
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Hr: true, atom.Figure: true, atom.Figcaption: true,
}

// CleanDescription renders an HTML description fragment as plain text.
//
// Images, scripts, styles and noscript blocks are dropped, links keep their
// text, <br> becomes a newline and adjacent block elements such as paragraphs
// are separated by a single line break. Afterwards every run of two or more
// whitespace characters, newlines included, collapses to one space, so only
// lone line breaks survive. Blank input yields "".
func CleanDescription(fragment string) (text string, err error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("render description: %v", r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse description: %w", err)
	}
	doc.Find(strippedElements).Remove()

	var r textRenderer
	for _, body := range doc.Find("body").Nodes {
		r.children(body)
	}
	return tidyText(string(r.buf)), nil
}

// textRenderer writes text the way a line-oriented converter does: block
// boundaries request a line break that is merged with any break already
// written, while each <br> always adds one.
type textRenderer struct {
	buf          []byte
	breakPending bool
}

func (r *textRenderer) render(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.text(textWhitespace.ReplaceAllString(n.Data, " "))
	case html.ElementNode:
		r.element(n)
	case html.DocumentNode:
		r.children(n)
	}
}

func (r *textRenderer) element(n *html.Node) {
	switch n.DataAtom {
	case atom.Img, atom.Script, atom.Style, atom.Noscript, atom.Head:
		return
	case atom.Br:
		r.flush()
		r.buf = append(bytes.TrimRight(r.buf, " "), '\n')
		return
	case atom.Li:
		r.lineBreak()
		r.text("* ")
		r.children(n)
		r.lineBreak()
		return
	case atom.Td, atom.Th:
		r.children(n)
		r.text(" ")
		return
	}

	if blockElements[n.DataAtom] {
		r.lineBreak()
		r.children(n)
		r.lineBreak()
		return
	}
	r.children(n)
}

func (r *textRenderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.render(c)
	}
}

// text appends s, dropping whitespace at the start of a line.
func (r *textRenderer) text(s string) {
	if r.atLineStart() {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	r.flush()
	r.buf = append(r.buf, s...)
}

func (r *textRenderer) lineBreak() {
	r.breakPending = true
}

// flush writes the pending line break unless the output already ends with
// one. Spaces before the break are dropped.
func (r *textRenderer) flush() {
	if !r.breakPending {
		return
	}
	r.breakPending = false
	r.buf = bytes.TrimRight(r.buf, " ")
	if len(r.buf) > 0 && r.buf[len(r.buf)-1] != '\n' {
		r.buf = append(r.buf, '\n')
	}
}

func (r *textRenderer) atLineStart() bool {
	return r.breakPending || len(r.buf) == 0 || r.buf[len(r.buf)-1] == '\n'
}

func tidyText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

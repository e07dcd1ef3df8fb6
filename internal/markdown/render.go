// Package markdown renders file previews: Markdown through Goldmark with GFM
// extensions, anything else through Chroma syntax highlighting.
package markdown

import (
	"bytes"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Preview kinds
const (
	KindMarkdown = "markdown"
	KindSource   = "source"
)

const styleName = "monokai"

// Heading is a table of contents entry. Anchor is the id of the rendered
// heading element.
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Preview is a rendered file.
type Preview struct {
	Kind  string    `json:"kind"`
	Title string    `json:"title,omitempty"`
	HTML  string    `json:"html"`
	TOC   []Heading `json:"toc,omitempty"`
	Lexer string    `json:"lexer,omitempty"`
}

// Renderer turns file contents into HTML. Code blocks and source files share
// one class-based Chroma style.
type Renderer struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
}

// NewRenderer creates a renderer with GFM extensions and heading IDs enabled.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(styleName),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &Renderer{
		md:        md,
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// Markdown renders source and collects its headings. The first heading, of
// any level, is the title.
func (r *Renderer) Markdown(source []byte) (*Preview, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}

	toc := headings(doc, source)
	preview := &Preview{
		Kind: KindMarkdown,
		HTML: buf.String(),
		TOC:  toc,
	}
	if len(toc) > 0 {
		preview.Title = toc[0].Title
	}
	return preview, nil
}

// Source highlights source, choosing the lexer from the file name, then from
// the content, then plain text.
func (r *Renderer) Source(filename string, source []byte) (*Preview, error) {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(string(source))
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	tokens, err := lexer.Tokenise(nil, string(source))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, styles.Get(styleName), tokens); err != nil {
		return nil, err
	}
	return &Preview{
		Kind:  KindSource,
		HTML:  buf.String(),
		Lexer: lexer.Config().Name,
	}, nil
}

// headings lists the document's headings in order. Anchors come from the
// parser's generated ids so they match the rendered HTML, duplicates included.
func headings(doc ast.Node, source []byte) []Heading {
	var toc []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var anchor string
		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				anchor = string(b)
			}
		}
		toc = append(toc, Heading{
			Level:  heading.Level,
			Title:  plainText(heading, source),
			Anchor: anchor,
		})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// plainText concatenates the text below n, dropping emphasis and links.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if tx, ok := child.(*ast.Text); ok {
					buf.Write(tx.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

package html

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []string {
	return []string{"html", "htm", "xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to text. The title is the <title>
// element, then the first <h1>, then the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	p, err := parse(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html: %v", domain.ErrInvalidInput, err)
	}

	title := p.title
	if title == "" {
		title = p.heading
	}
	if title == "" {
		title = titleFromName(raw.Name)
	}
	return &driven.NormaliseResult{Title: title, Content: p.text}, nil
}

// dropped elements contribute no text.
var dropped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

// blocks start and end a line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Main: true, atom.Aside: true, atom.Figcaption: true,
}

type page struct {
	title   string
	heading string
	text    string
}

func parse(content []byte) (*page, error) {
	doc, err := xhtml.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var (
		p   page
		buf strings.Builder
	)
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		switch n.Type {
		case xhtml.TextNode:
			// Source line breaks are layout, not structure.
			buf.WriteString(flattenSpace(n.Data))
			return
		case xhtml.CommentNode, xhtml.DoctypeNode:
			return
		case xhtml.ElementNode:
			if n.DataAtom == atom.Head {
				if t := findFirst(n, atom.Title); t != nil {
					p.title = collapse(textOf(t))
				}
				return
			}
			if dropped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.H1 && p.heading == "" {
				p.heading = collapse(textOf(n))
			}
		}

		block := n.Type == xhtml.ElementNode && blocks[n.DataAtom]
		if block {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			buf.WriteByte('\n')
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	p.text = strings.Join(lines, "\n")
	return &p, nil
}

func findFirst(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *xhtml.Node) string {
	if n.Type == xhtml.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}

// flattenSpace turns every whitespace run into one space, keeping a space
// at either edge so adjacent inline text stays separated.
func flattenSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleFromName(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

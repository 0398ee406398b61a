package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart   = "word/document.xml"
	corePropsPart  = "docProps/core.xml"
	wordprocessing = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []string {
	return []string{"docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the paragraphs of a DOCX archive, one per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	body, err := fs.ReadFile(archive, documentPart)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: docx archive has no %s", domain.ErrInvalidInput, documentPart)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentPart, err)
	}

	text, err := paragraphs(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidInput, documentPart, err)
	}

	title := coreTitle(archive)
	if title == "" {
		title = titleFromName(raw.Name)
	}
	return &driven.NormaliseResult{Title: title, Content: text}, nil
}

// paragraphs walks the document tokens. Text runs are concatenated, w:tab
// becomes a tab and w:br/w:cr and paragraph ends become line breaks.
func paragraphs(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		lines  []string
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessing {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessing {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, line.String())
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

type coreProperties struct {
	Title string `xml:"title"`
}

// coreTitle returns the dc:title of the package, or "" when absent.
func coreTitle(archive fs.FS) string {
	data, err := fs.ReadFile(archive, corePropsPart)
	if err != nil {
		return ""
	}
	var props coreProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}

func titleFromName(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

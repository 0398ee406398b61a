package domain

// RawDocument is an uploaded file before its text has been extracted.
type RawDocument struct {
	// Name is the original file name. It provides the fallback title.
	Name string

	// FileType is the lowercase extension without the dot (md, html, docx).
	FileType string

	// Content is the raw bytes.
	Content []byte
}

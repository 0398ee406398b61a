package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		Name:     "trip-notes.md",
		FileType: "md",
		Content:  []byte("# Lisbon"),
	}

	assert.Equal(t, "trip-notes.md", raw.Name)
	assert.Equal(t, "md", raw.FileType)
	assert.Equal(t, []byte("# Lisbon"), raw.Content)
}

func TestRawDocument_ZeroValue(t *testing.T) {
	var raw RawDocument

	assert.Empty(t, raw.Name)
	assert.Empty(t, raw.FileType)
	assert.Nil(t, raw.Content)
}

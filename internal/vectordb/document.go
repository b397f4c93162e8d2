package vectordb

import "time"

// Document is one retrievable policy passage.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a passage.
type DocumentMetadata struct {
	// Source is the policy file path relative to the policies directory.
	Source string
	// Section is the heading trail the passage sits under, e.g. "Returns > Damaged items".
	Section     string
	Chunk       int
	ContentHash string
	IngestedAt  time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter allows narrowing search results by metadata fields.
type SearchFilter struct {
	Source *string
}

// Label returns the citation shown to users for this passage.
func (m DocumentMetadata) Label() string {
	if m.Section == "" {
		return m.Source
	}
	return m.Source + "#" + m.Section
}

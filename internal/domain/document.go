package domain

// DocumentMetadata carries the fixed identity fields of an ingested document.
// Extra holds forward-compatible fields that have no dedicated column yet.
type DocumentMetadata struct {
	SourceID string            `json:"source_id"`
	Title    string            `json:"title"`
	URL      string            `json:"url"`
	SpaceKey string            `json:"space_key"`
	UserID   string            `json:"user_id"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// EmbeddedDocument is one (content, metadata, embedding) triple as persisted
// in the vector store. Chunks are never stored standalone.
type EmbeddedDocument struct {
	Content  string
	Metadata DocumentMetadata
	Vector   []float32
}

// RetrievalMatch is one ranked result of a similarity search. Request-scoped,
// never persisted.
type RetrievalMatch struct {
	ID         string           `json:"id"`
	Content    string           `json:"content"`
	Metadata   DocumentMetadata `json:"metadata"`
	Similarity float64          `json:"similarity"`
}

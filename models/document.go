package models

// Document is the raw text extracted from one uploaded file. Extractors
// that know about pages (PDF) emit one Document per page, Page starting
// at 1; everything else leaves Page at 0.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Page int    `json:"page,omitempty"`
}

// Chunk is one embeddable window of a document. Order is the chunk's
// position within its ingestion batch.
type Chunk struct {
	ChunkID string `json:"chunk_id" bson:"chunk_id"`
	Text    string `json:"text" bson:"text"`
	Source  string `json:"source" bson:"source"`
	Page    int    `json:"page,omitempty" bson:"page,omitempty"`
	Order   int    `json:"order" bson:"order"`
}

// FileError is one file that failed extraction within an upload batch.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// IngestReport summarizes one upload batch: the documents that made it
// into the index, the total chunks embedded, and the per-file failures.
type IngestReport struct {
	DocumentNames []string    `json:"document_names"`
	ChunkCount    int         `json:"chunk_count"`
	Errors        []FileError `json:"errors"`
}

package models

// Query sources. Only the uploaded-documents corpus is queryable.
const (
	SourceUploadedDocuments = "uploaded_documents"
)

// Response modes. Unrestricted lets the model draw on its own knowledge
// alongside the retrieved context; Grounded confines it to the context.
const (
	ModeUnrestricted = "Unrestricted"
	ModeGrounded     = "Grounded"
)

// QueryRequest is the body of POST /query. APIKey is optional; without it
// the host-shared key is used when enabled.
type QueryRequest struct {
	Question    string  `json:"question" binding:"required"`
	Source      string  `json:"source"`
	Mode        string  `json:"mode"`
	Temperature float64 `json:"temperature"`
	APIKey      string  `json:"api_key"`
}

// QueryResult is the retrieval chain's output before it is shaped for the
// HTTP response.
type QueryResult struct {
	Answer      string
	CitedChunks []Chunk
}

// Citation is one retrieved chunk surfaced to the caller alongside the
// answer.
type Citation struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
}

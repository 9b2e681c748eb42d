package models

// ChatTurn is one completed question/answer exchange, kept server-side
// and echoed back with each chat_response.
type ChatTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Chunk is one embedded slice of an artifact's extracted text, the unit
// the retrieval engine scores. Source/Type/Page become the citation
// metadata of any answer this chunk justifies.
type Chunk struct {
	ArtifactID string
	Source     string
	Type       CitationType
	Page       int
	Content    string
	Embedding  []float32
}

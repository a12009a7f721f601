package backend

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the decoded 2xx body of POST /chat. Unknown fields are ignored.
type ChatResponse struct {
	Response      string `json:"response"`
	EnhancedQuery string `json:"enhanced_query,omitempty"`
	Status        string `json:"status,omitempty"`
}

// chatReply detects a missing "response" field.
type chatReply struct {
	Response      *string `json:"response"`
	EnhancedQuery string  `json:"enhanced_query"`
	Status        string  `json:"status"`
}

// IngestResponse is what the reference backend returns after ingestion.
// The console only relies on the status code; these fields are informational.
type IngestResponse struct {
	Status          string `json:"status,omitempty"`
	Filename        string `json:"filename,omitempty"`
	ChunksProcessed int    `json:"chunks_processed,omitempty"`
	Message         string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Status string `json:"status"`
	System string `json:"system"`
}

// File is one document part of an ingestion request.
type File struct {
	Name        string
	Content     []byte
	ContentType string
}

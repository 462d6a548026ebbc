package models

import "time"

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
	Error  string `json:"error,omitempty"`
}

// ChatRequest is a RAG chat query
type ChatRequest struct {
	AccountID        int    `json:"account_id"`
	Query            string `json:"query"`
	SelectedThreadID *int   `json:"selected_thread_id,omitempty"`
}

// ChatResponse carries the generated answer with index-aligned citations
type ChatResponse struct {
	Answer    string     `json:"answer,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// IngestRequest queues an ingestion run for one account
type IngestRequest struct {
	AccountID int `json:"account_id"`
}

// IngestResponse acknowledges a queued ingestion run
type IngestResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DraftRequest asks the provider for an email draft
type DraftRequest struct {
	To           []string `json:"to"`
	SubjectHint  string   `json:"subject_hint"`
	Instructions string   `json:"instructions"`
}

// DraftResponse is the drafted subject and body
type DraftResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Error   string `json:"error,omitempty"`
}

// SendRequest sends an email from an account
type SendRequest struct {
	AccountID int      `json:"account_id"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
}

// SendResponse reports the stored sent message
type SendResponse struct {
	MessageID int    `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// ThreadOut is a thread list entry
type ThreadOut struct {
	ID          int        `json:"id"`
	SubjectNorm string     `json:"subject_norm"`
	LastDate    *time.Time `json:"last_date,omitempty"`
}

// ThreadMessagesOut is a thread with its messages in sent order
type ThreadMessagesOut struct {
	ThreadID int       `json:"thread_id"`
	Messages []Message `json:"messages"`
}

// ErrorResponse is a generic JSON error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// DBHealthResponse reports database connectivity and ping latency
type DBHealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}

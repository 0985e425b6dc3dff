// Package model defines domain entities exchanged with the document service.
package model

import "time"

// Tokens carries the issued access token. The service has no refresh flow;
// an expired token simply forces a new login.
type Tokens struct {
	Access string `json:"access"`
}

// User is the authenticated account as reported by the server. The client
// never edits it locally; it is replaced wholesale on each successful login.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Registration is the account-creation payload. Tags drive local validation
// before the request leaves the process; everything else is the backend's call.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name,omitempty"`
}

// Document is a single uploaded document. The server is authoritative for ID
// and CreatedAt; the client only ever replaces whole records from responses.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// QAExchange is one question asked against one document. It is ephemeral:
// created when the question is submitted, discarded when the caller is done.
type QAExchange struct {
	DocumentID int64
	Question   string
	Answer     string
	Err        string
}

// Answered reports whether the exchange resolved to an answer.
func (e QAExchange) Answered() bool { return e.Err == "" && e.Answer != "" }

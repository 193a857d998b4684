package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxQueryLimit caps the page size of list requests.
const MaxQueryLimit = 1000

// Partition scopes every cache key and remote call to one remote server and
// one user on it.
type Partition struct {
	Host string `json:"host"`
	User string `json:"user"`
}

// Valid reports whether both host and user are set.
func (p Partition) Valid() bool {
	return p.Host != "" && p.User != ""
}

// MemoQuery describes a list request against the remote server.
type MemoQuery struct {
	Tag         string    `json:"tag,omitempty"`
	Content     string    `json:"content,omitempty"`
	RowStatus   RowStatus `json:"rowStatus,omitempty"`
	FilterPages bool      `json:"filterPages"`
	Limit       int       `json:"limit"`
	Offset      int       `json:"offset"`
}

// Validate validates the query. Zero Limit and empty RowStatus are allowed;
// callers fill in defaults before fetching.
func (q MemoQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.RowStatus, validation.In(RowStatusNormal, RowStatusArchived)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(MaxQueryLimit)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

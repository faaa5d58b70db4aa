// Package domain contains core concepts of the message service.
// This file defines the Message entity and its rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. WordCount and CharCount are
// always computed from SanitizedContent: words are whitespace-delimited
// fields, characters are Unicode code points.
type Message struct {
	ID               uuid.UUID // unique identifier, assigned at creation
	SessionID        string
	Sender           string
	Content          string // original text as submitted
	SanitizedContent string // content after censoring, may equal Content
	Flagged          bool   // true if censoring altered the content
	WordCount        int
	CharCount        int
	Language         string // ISO 639-1 code, empty when undetected
	CreatedAt        time.Time
}

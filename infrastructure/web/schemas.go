package web

import (
	"time"

	"chat-relay/domain"

	"github.com/samber/lo"
)

// CreateMessageRequest is the POST /api/messages payload.
// Field-level rules are enforced by the domain processor; the transport
// only guards the envelope shape.
type CreateMessageRequest struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
}

type MetadataResponse struct {
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
	Language       string `json:"language,omitempty"`
}

type MessageResponse struct {
	MessageID        string           `json:"message_id"`
	SessionID        string           `json:"session_id"`
	Sender           string           `json:"sender"`
	Content          string           `json:"content"`
	SanitizedContent string           `json:"sanitized_content"`
	Flagged          bool             `json:"flagged"`
	Metadata         MetadataResponse `json:"metadata"`
	CreatedAt        time.Time        `json:"created_at"`
}

type SuccessResponse struct {
	Status string          `json:"status"`
	Data   MessageResponse `json:"data"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		MessageID:        m.ID.String(),
		SessionID:        m.SessionID,
		Sender:           m.Sender,
		Content:          m.Content,
		SanitizedContent: m.SanitizedContent,
		Flagged:          m.Flagged,
		Metadata: MetadataResponse{
			WordCount:      m.WordCount,
			CharacterCount: m.CharCount,
			Language:       m.Language,
		},
		CreatedAt: m.CreatedAt,
	}
}

func toMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
		return toMessageResponse(m)
	})
}

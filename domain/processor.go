package domain

import (
	stderrors "errors"
	"strings"
	"time"
	"unicode/utf8"

	"chat-relay/errors"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ContentFilter censors disallowed terms in a text.
// It returns the sanitized text and the list of matched terms.
type ContentFilter interface {
	Censor(original string) (string, []string)
}

// Processor validates a PostMessageCommand and builds the resulting Message.
// It has no side effects beyond reading the clock.
type Processor struct {
	filter           ContentFilter
	maxContentLength int
	now              func() time.Time
}

func NewProcessor(filter ContentFilter, maxContentLength int) *Processor {
	return &Processor{filter: filter, maxContentLength: maxContentLength, now: time.Now}
}

// WithClock overrides the creation timestamp source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process rejects malformed input, censors the content and enriches the
// resulting Message with word/char counts and the detected language.
// Censoring never fails: worst case every term is masked.
func (p *Processor) Process(cmd PostMessageCommand) (Message, error) {
	if err := validate.Struct(cmd); err != nil {
		return Message{}, errors.ValidationError{
			Kind:    errors.MissingField,
			Field:   missingField(err),
			Message: "session_id and sender must be present and well formed",
		}
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return Message{}, errors.ValidationError{
			Kind:    errors.EmptyContent,
			Field:   "content",
			Message: "content cannot be empty or whitespace only",
		}
	}
	if utf8.RuneCountInString(cmd.Content) > p.maxContentLength {
		return Message{}, errors.ValidationError{
			Kind:    errors.TooLong,
			Field:   "content",
			Message: "content exceeds the maximum length",
		}
	}

	sanitized, found := p.filter.Censor(cmd.Content)
	info := whatlanggo.Detect(cmd.Content)

	return Message{
		ID:               uuid.New(),
		SessionID:        cmd.SessionID,
		Sender:           cmd.Sender,
		Content:          cmd.Content,
		SanitizedContent: sanitized,
		Flagged:          len(found) > 0,
		WordCount:        len(strings.Fields(sanitized)),
		CharCount:        utf8.RuneCountInString(sanitized),
		Language:         info.Lang.Iso6391(),
		CreatedAt:        p.now().UTC(),
	}, nil
}

func missingField(err error) string {
	var invalid validator.ValidationErrors
	if stderrors.As(err, &invalid) && len(invalid) > 0 {
		return strings.ToLower(invalid[0].Field())
	}
	return ""
}

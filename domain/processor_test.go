package domain

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"chat-relay/errors"
	"chat-relay/moderation"

	"github.com/stretchr/testify/require"
)

const maxContentLength = 2000

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	moderator, err := moderation.NewModerator([]string{"badger", "ofensivo"}, '*')
	require.NoError(t, err)
	return NewProcessor(&moderator, maxContentLength)
}

func TestProcessor_Process_Valid_Command(t *testing.T) {
	req := require.New(t)
	processor := newTestProcessor(t)

	// Given a well-formed command in plain English
	cmd := PostMessageCommand{
		SessionID: "session-1",
		Sender:    "alice",
		Content:   "The quick brown fox jumps over the lazy dog and keeps running through the quiet forest",
	}

	// When processing
	msg, err := processor.Process(cmd)

	// Then the message is enriched and untouched by censoring
	req.NoError(err)
	req.NotEqual("", msg.ID.String())
	req.Equal("session-1", msg.SessionID)
	req.Equal("alice", msg.Sender)
	req.Equal(cmd.Content, msg.Content)
	req.Equal(cmd.Content, msg.SanitizedContent)
	req.False(msg.Flagged)
	req.Equal("en", msg.Language)
	req.False(msg.CreatedAt.IsZero())

	// And counts recompute identically from the sanitized content
	req.Equal(len(strings.Fields(msg.SanitizedContent)), msg.WordCount)
	req.Equal(utf8.RuneCountInString(msg.SanitizedContent), msg.CharCount)
}

func TestProcessor_Process_Censors_And_Flags(t *testing.T) {
	req := require.New(t)
	processor := newTestProcessor(t)

	// Given content containing a censored term
	cmd := PostMessageCommand{SessionID: "s", Sender: "bob", Content: "look, a badger here"}

	// When processing
	msg, err := processor.Process(cmd)

	// Then the term is masked, the message flagged, counts follow the sanitized text
	req.NoError(err)
	req.Equal("look, a ****** here", msg.SanitizedContent)
	req.NotContains(msg.SanitizedContent, "badger")
	req.True(msg.Flagged)
	req.Equal("look, a badger here", msg.Content)
	req.Equal(4, msg.WordCount)
	req.Equal(utf8.RuneCountInString(msg.SanitizedContent), msg.CharCount)
}

func TestProcessor_Process_CharCount_Counts_Code_Points(t *testing.T) {
	req := require.New(t)
	processor := newTestProcessor(t)

	// Given multi-byte content
	cmd := PostMessageCommand{SessionID: "s", Sender: "bob", Content: "héllo wörld"}

	msg, err := processor.Process(cmd)

	req.NoError(err)
	req.Equal(11, msg.CharCount)
	req.Equal(2, msg.WordCount)
}

func TestProcessor_Process_Rejects_Empty_Content(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t "} {
		processor := newTestProcessor(t)

		_, err := processor.Process(PostMessageCommand{SessionID: "s", Sender: "bob", Content: content})

		v, ok := errors.AsValidation(err)
		require.True(t, ok)
		require.Equal(t, errors.EmptyContent, v.Kind)
	}
}

func TestProcessor_Process_Rejects_Too_Long_Content(t *testing.T) {
	req := require.New(t)
	processor := newTestProcessor(t)

	// Given content one rune over the limit
	cmd := PostMessageCommand{
		SessionID: "s",
		Sender:    "bob",
		Content:   strings.Repeat("é", maxContentLength+1),
	}

	_, err := processor.Process(cmd)

	v, ok := errors.AsValidation(err)
	req.True(ok)
	req.Equal(errors.TooLong, v.Kind)
}

func TestProcessor_Process_Rejects_Missing_Fields(t *testing.T) {
	tests := []struct {
		name  string
		cmd   PostMessageCommand
		field string
	}{
		{
			name:  "Missing session",
			cmd:   PostMessageCommand{Sender: "bob", Content: "hello"},
			field: "sessionid",
		},
		{
			name:  "Missing sender",
			cmd:   PostMessageCommand{SessionID: "s", Content: "hello"},
			field: "sender",
		},
		{
			name:  "Session with reserved separator",
			cmd:   PostMessageCommand{SessionID: "a:b", Sender: "bob", Content: "hello"},
			field: "sessionid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			processor := newTestProcessor(t)

			_, err := processor.Process(tt.cmd)

			v, ok := errors.AsValidation(err)
			req.True(ok)
			req.Equal(errors.MissingField, v.Kind)
			req.Equal(tt.field, v.Field)
		})
	}
}

func TestProcessor_Process_Uses_Injected_Clock(t *testing.T) {
	req := require.New(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	processor := newTestProcessor(t).WithClock(func() time.Time { return fixed })

	msg, err := processor.Process(PostMessageCommand{SessionID: "s", Sender: "bob", Content: "hello there"})

	req.NoError(err)
	req.Equal(fixed, msg.CreatedAt)
}

package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testAPIKey    = "secret-key"
	testRateLimit = 1000
)

func newServerUnderTest(t *testing.T) (*Server, *mocks.MockIChatService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockIChatService(ctrl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(log, chat, testAPIKey, testRateLimit, 16, time.Second)
	return server, chat
}

func doRequest(server *Server, method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authenticated {
		req.Header.Set(apiKeyHeader, testAPIKey)
	}
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_CreateMessage_Returns_Envelope(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	created := domain.Message{
		ID:               uuid.New(),
		SessionID:        "session-1",
		Sender:           "alice",
		Content:          "hello forbiddenword",
		SanitizedContent: "hello *************",
		Flagged:          true,
		WordCount:        2,
		CharCount:        19,
		Language:         "en",
		CreatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	chat.EXPECT().
		PostMessage(gomock.Any(), domain.PostMessageCommand{
			SessionID: "session-1",
			Sender:    "alice",
			Content:   "hello forbiddenword",
		}).
		Return(created, nil)

	rec := doRequest(server, http.MethodPost, "/api/messages",
		`{"session_id":"session-1","sender":"alice","content":"hello forbiddenword"}`, true)

	req.Equal(http.StatusCreated, rec.Code)
	var resp SuccessResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("success", resp.Status)
	req.Equal(created.ID.String(), resp.Data.MessageID)
	req.Equal("hello *************", resp.Data.SanitizedContent)
	req.True(resp.Data.Flagged)
	req.Equal(2, resp.Data.Metadata.WordCount)
	req.Equal("en", resp.Data.Metadata.Language)
}

func TestServer_CreateMessage_Maps_Validation_Failure_To_400(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	chat.EXPECT().
		PostMessage(gomock.Any(), gomock.Any()).
		Return(domain.Message{}, errors.ValidationError{
			Kind:    errors.EmptyContent,
			Field:   "content",
			Message: "content cannot be empty",
		})

	rec := doRequest(server, http.MethodPost, "/api/messages",
		`{"session_id":"session-1","sender":"alice","content":"   "}`, true)

	req.Equal(http.StatusBadRequest, rec.Code)
	resp := decodeErrorResponse(t, rec)
	req.Equal("error", resp.Status)
	req.Equal("EMPTY_CONTENT", resp.Error.Code)
	req.Equal("content", resp.Error.Details)
}

func TestServer_CreateMessage_Rejects_Malformed_Body(t *testing.T) {
	req := require.New(t)
	server, _ := newServerUnderTest(t)

	rec := doRequest(server, http.MethodPost, "/api/messages", `{not json`, true)

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("MALFORMED_BODY", decodeErrorResponse(t, rec).Error.Code)
}

func TestServer_CreateMessage_Maps_Storage_Failure_To_503(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	chat.EXPECT().
		PostMessage(gomock.Any(), gomock.Any()).
		Return(domain.Message{}, errors.StorageError{Kind: errors.Unavailable})

	rec := doRequest(server, http.MethodPost, "/api/messages",
		`{"session_id":"session-1","sender":"alice","content":"hello"}`, true)

	req.Equal(http.StatusServiceUnavailable, rec.Code)
	req.Equal("UNAVAILABLE", decodeErrorResponse(t, rec).Error.Code)
}

func TestServer_Requires_API_Key(t *testing.T) {
	req := require.New(t)
	server, _ := newServerUnderTest(t)

	rec := doRequest(server, http.MethodGet, "/api/messages/session-1", "", false)

	req.Equal(http.StatusUnauthorized, rec.Code)
	req.Equal("UNAUTHORIZED", decodeErrorResponse(t, rec).Error.Code)
}

func TestServer_Accepts_API_Key_As_Query_Param(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	chat.EXPECT().
		GetMessages(gomock.Any()).
		Return([]domain.Message{}, nil)

	rec := doRequest(server, http.MethodGet,
		"/api/messages/session-1?X-API-Key="+testAPIKey, "", false)

	req.Equal(http.StatusOK, rec.Code)
}

func TestServer_GetMessages_Forwards_Pagination(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	chat.EXPECT().
		GetMessages(domain.GetMessagesCommand{
			SessionID: "session-1",
			Limit:     5,
			Offset:    10,
			Sender:    "alice",
		}).
		Return([]domain.Message{}, nil)

	rec := doRequest(server, http.MethodGet,
		"/api/messages/session-1?limit=5&offset=10&sender=alice", "", true)

	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`[]`, rec.Body.String())
}

func TestServer_GetMessages_Rejects_Non_Numeric_Pagination(t *testing.T) {
	req := require.New(t)
	server, _ := newServerUnderTest(t)

	rec := doRequest(server, http.MethodGet,
		"/api/messages/session-1?limit=lots", "", true)

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("MALFORMED_QUERY", decodeErrorResponse(t, rec).Error.Code)
}

func TestServer_Search_Requires_Minimum_Query_Length(t *testing.T) {
	req := require.New(t)
	server, _ := newServerUnderTest(t)

	rec := doRequest(server, http.MethodGet, "/api/messages/search?q=ab", "", true)

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("QUERY_TOO_SHORT", decodeErrorResponse(t, rec).Error.Code)
}

func TestServer_Search_Returns_Matches(t *testing.T) {
	req := require.New(t)
	server, chat := newServerUnderTest(t)

	found := []domain.Message{
		{ID: uuid.New(), SessionID: "session-2", Sender: "bob", Content: "hello there"},
		{ID: uuid.New(), SessionID: "session-1", Sender: "alice", Content: "hello"},
	}
	chat.EXPECT().
		SearchMessages(gomock.Any(), "hello").
		Return(found, nil)

	rec := doRequest(server, http.MethodGet, "/api/messages/search?q=hello", "", true)

	req.Equal(http.StatusOK, rec.Code)
	var resp []MessageResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Len(resp, 2)
	req.Equal("hello there", resp[0].Content)
}

func TestServer_Rate_Limits_Per_Client(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockIChatService(ctrl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A burst of two, then the bucket is dry
	server := NewServer(log, chat, testAPIKey, 2, 16, time.Second)
	chat.EXPECT().GetMessages(gomock.Any()).Return([]domain.Message{}, nil).Times(2)

	for i := 0; i < 2; i++ {
		rec := doRequest(server, http.MethodGet, "/api/messages/session-1", "", true)
		req.Equal(http.StatusOK, rec.Code)
	}

	rec := doRequest(server, http.MethodGet, "/api/messages/session-1", "", true)
	req.Equal(http.StatusTooManyRequests, rec.Code)
	req.Equal("RATE_LIMITED", decodeErrorResponse(t, rec).Error.Code)
}

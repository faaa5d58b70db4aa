package runtime

import (
	"context"
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newOrchestratorUnderTest(t *testing.T) (*Orchestrator, *mocks.MockMessageRepository, *mocks.MockRegistry) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	registry := mocks.NewMockRegistry(ctrl)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	require.NoError(t, err)
	processor := domain.NewProcessor(&moderator, 2000)

	return NewOrchestrator(processor, repo, registry), repo, registry
}

func TestOrchestrator_CreateMessage_Stores_Then_Broadcasts(t *testing.T) {
	req := require.New(t)
	orchestrator, repo, registry := newOrchestratorUnderTest(t)

	var stored domain.Message
	gomock.InOrder(
		repo.EXPECT().Store(gomock.Any()).DoAndReturn(func(m domain.Message) error {
			stored = m
			return nil
		}),
		registry.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Do(func(_ context.Context, m domain.Message) {
			// The broadcast payload is the persisted message, unchanged
			require.Equal(t, stored.ID, m.ID)
		}),
	)

	msg, err := orchestrator.CreateMessage(context.Background(), domain.PostMessageCommand{
		SessionID: "session-1",
		Sender:    "alice",
		Content:   "hello there",
	})

	req.NoError(err)
	req.Equal("hello there", msg.SanitizedContent)
}

func TestOrchestrator_CreateMessage_Validation_Failure_Skips_Save_And_Broadcast(t *testing.T) {
	req := require.New(t)
	orchestrator, _, _ := newOrchestratorUnderTest(t)

	// Given invalid content; no repository or registry expectation is set,
	// so any call to them fails the test
	_, err := orchestrator.CreateMessage(context.Background(), domain.PostMessageCommand{
		SessionID: "session-1",
		Sender:    "alice",
		Content:   "   ",
	})

	v, ok := errors.AsValidation(err)
	req.True(ok)
	req.Equal(errors.EmptyContent, v.Kind)
}

func TestOrchestrator_CreateMessage_Storage_Failure_Skips_Broadcast(t *testing.T) {
	req := require.New(t)
	orchestrator, repo, _ := newOrchestratorUnderTest(t)

	// Given a failing store; no Broadcast expectation: a phantom broadcast
	// would fail the test
	repo.EXPECT().Store(gomock.Any()).Return(
		errors.StorageError{Kind: errors.Unavailable, Err: context.DeadlineExceeded})

	_, err := orchestrator.CreateMessage(context.Background(), domain.PostMessageCommand{
		SessionID: "session-1",
		Sender:    "alice",
		Content:   "hello",
	})

	s, ok := errors.AsStorage(err)
	req.True(ok)
	req.Equal(errors.Unavailable, s.Kind)
}

func TestOrchestrator_GetMessages_Delegates_To_Repository(t *testing.T) {
	req := require.New(t)
	orchestrator, repo, _ := newOrchestratorUnderTest(t)

	repo.EXPECT().ListBySession("session-1", 10, 5, "alice").Return(nil, nil)

	messages, err := orchestrator.GetMessages(domain.GetMessagesCommand{
		SessionID: "session-1",
		Limit:     10,
		Offset:    5,
		Sender:    "alice",
	})

	// An empty session yields an empty result, not an error
	req.NoError(err)
	req.Empty(messages)
}

func TestOrchestrator_SearchMessages_Delegates_To_Repository(t *testing.T) {
	req := require.New(t)
	orchestrator, repo, _ := newOrchestratorUnderTest(t)

	repo.EXPECT().SearchByContent(gomock.Any(), "hello").Return(nil, nil)

	messages, err := orchestrator.SearchMessages(context.Background(), "hello")

	req.NoError(err)
	req.Empty(messages)
}

func TestOrchestrator_CreatedAt_Monotonic_Within_Session(t *testing.T) {
	req := require.New(t)
	orchestrator, repo, registry := newOrchestratorUnderTest(t)

	repo.EXPECT().Store(gomock.Any()).Return(nil).AnyTimes()
	registry.EXPECT().Broadcast(gomock.Any(), gomock.Any()).AnyTimes()

	var previous domain.Message
	for i := 0; i < 10; i++ {
		msg, err := orchestrator.CreateMessage(context.Background(), domain.PostMessageCommand{
			SessionID: "session-1",
			Sender:    "alice",
			Content:   "tick",
		})
		req.NoError(err)
		if i > 0 {
			req.False(msg.CreatedAt.Before(previous.CreatedAt))
		}
		previous = msg
	}
}

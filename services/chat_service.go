//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
)

type IChatService interface {
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error)
	GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error)
	SearchMessages(ctx context.Context, query string) ([]domain.Message, error)
	Join(sessionID string, sink contract.EventSink) contract.SubscriptionID
	Leave(id contract.SubscriptionID)
}

// ChatService is the transport-facing facade over the orchestrator.
type ChatService struct {
	orchestrator *runtime.Orchestrator
}

var _ IChatService = (*ChatService)(nil)

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	return s.orchestrator.CreateMessage(ctx, cmd)
}

func (s *ChatService) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error) {
	return s.orchestrator.GetMessages(cmd)
}

func (s *ChatService) SearchMessages(ctx context.Context, query string) ([]domain.Message, error) {
	return s.orchestrator.SearchMessages(ctx, query)
}

func (s *ChatService) Join(sessionID string, sink contract.EventSink) contract.SubscriptionID {
	return s.orchestrator.RegisterSubscriber(sessionID, sink)
}

func (s *ChatService) Leave(id contract.SubscriptionID) {
	s.orchestrator.UnregisterSubscriber(id)
}

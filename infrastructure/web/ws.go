package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chat-relay/domain"
	"chat-relay/sink"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// ServeWS upgrades the request to a WebSocket subscription. The optional
// session_id query parameter scopes the subscription; without it the client
// receives every broadcast. The connection stays registered until the
// client disconnects or a write fails; undelivered events are not replayed.
func (s *Server) ServeWS(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Error("Failed to upgrade WebSocket connection", "error", err)
		return c.String(http.StatusInternalServerError, "failed to upgrade to WebSocket")
	}

	sessionID := c.QueryParam("session_id")
	channelSink := sink.NewChannelSink(s.bufferSize, s.deliveryTimeout)
	id := s.chat.Join(sessionID, channelSink)
	s.log.Info("Subscriber connected", "subscription_id", string(id), "session_id", sessionID)

	defer func() {
		s.chat.Leave(id)
		channelSink.Close()
		conn.Close(websocket.StatusNormalClosure, "")
		s.log.Info("Subscriber disconnected", "subscription_id", string(id))
	}()

	ctx := c.Request().Context()

	// The read pump's only job is detecting disconnect: clients do not
	// send data on this channel. It owns all reads on the connection.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-readClosed:
			return nil
		case m := <-channelSink.Events:
			payload, err := json.Marshal(toBroadcastPayload(m))
			if err != nil {
				s.log.Error("Failed to encode broadcast payload", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				s.log.Warn(fmt.Sprintf("Write failed, dropping subscriber %s", id), "error", err)
				return nil
			}
		}
	}
}

// toBroadcastPayload is the wire view of one broadcast, the same envelope
// the create endpoint returns.
func toBroadcastPayload(m domain.Message) SuccessResponse {
	return SuccessResponse{
		Status: "success",
		Data:   toMessageResponse(m),
	}
}

package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
)

// ssePusher buffers notifications for one server-sent-events session.
// Push never blocks; a slow consumer drops events instead of stalling
// the dispatcher.
type ssePusher struct {
	ch chan domain.Notification
}

func newSSEPusher() *ssePusher {
	return &ssePusher{ch: make(chan domain.Notification, 16)}
}

func (p *ssePusher) Push(n domain.Notification) error {
	select {
	case p.ch <- n:
		return nil
	default:
		return fmt.Errorf("session buffer full, notification %s dropped", n.ID)
	}
}

// NotificationStream handles GET /api/notifications/stream: registers a
// live session and streams pushed notifications until the client leaves.
func (s *Server) NotificationStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	pusher := newSSEPusher()
	sessionID := uuid.NewString()
	s.sessions.Register(userID, sessionID, pusher)
	defer s.sessions.Unregister(userID, sessionID)

	s.logger.Debug("notification stream opened",
		zap.String("user_id", userID), zap.String("session_id", sessionID))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case n := <-pusher.ch:
			payload, err := json.Marshal(n)
			if err != nil {
				s.logger.Warn("notification marshal failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

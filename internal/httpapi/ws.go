package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/hub"
	"github.com/antoniostano/gavel/internal/protocol"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	wsReadLimit    = 1 << 20
)

// handleDebateWS upgrades the connection, subscribes it to the session,
// sends the current snapshot (no event replay for late joiners), and
// then shuttles messages until either side goes away. Writes stay
// single-threaded: everything funnels through the subscriber queue.
func (s *Server) handleDebateWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	role := debate.Role(strings.TrimSpace(r.URL.Query().Get("role")))
	if role != "" && !debate.ValidRole(role) {
		respondError(w, http.StatusBadRequest, "invalid_role", "unknown role "+string(role))
		return
	}

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		s.respondCourtError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(sessionID, role)
	defer s.hub.Unsubscribe(sub)
	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.hub.SendTo(sub, protocol.Connected{Type: protocol.TypeConnected, SessionID: sessionID, Role: role})
	s.hub.SendTo(sub, protocol.StatusUpdate{
		Type:     protocol.TypeStatusUpdate,
		Snapshot: protocol.FromSnapshot(sessionID, sess.Snapshot()),
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				// Session deleted or swept; subscriptions never outlive it.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"),
					time.Now().Add(wsWriteTimeout))
				cancel()
				return
			case msg := <-sub.Events():
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.hub.SendTo(sub, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Detail:    err.Error(),
			})
			continue
		}
		if t, ok := protocol.MessageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		select {
		case <-ctx.Done():
			break readLoop
		default:
		}

		switch msg := parsed.(type) {
		case protocol.Ping:
			s.hub.SendTo(sub, protocol.Pong{Type: protocol.TypePong})
		case protocol.HumanInput:
			// Resume may call the generator for the continuation
			// decision; never block the read loop on it.
			go s.routeInput(ctx, sub, msg)
		case protocol.NextStep:
			go s.advanceFromWS(ctx, sub, sessionID)
		}
	}

	cancel()
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

func (s *Server) routeInput(ctx context.Context, sub *hub.Subscriber, msg protocol.HumanInput) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	if _, err := s.hub.RouteInput(ctx, sub, msg.Role, msg.Content); err != nil {
		s.sendErrorEvent(sub, err)
	}
	// The committed turn reaches every subscriber through the hub.
}

func (s *Server) advanceFromWS(ctx context.Context, sub *hub.Subscriber, sessionID string) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		s.sendErrorEvent(sub, err)
		return
	}

	// No-op advances are not rebroadcast; answer the requester directly
	// with the pending or final event.
	if ev, ok := sess.Pending(); ok {
		s.hub.SendTo(sub, protocol.FromEvent(sessionID, ev))
		return
	}
	if snap := sess.Snapshot(); snap.Ended() {
		s.hub.SendTo(sub, protocol.DebateEnded{
			Type:        protocol.TypeDebateEnded,
			SessionID:   sessionID,
			Verdict:     snap.Verdict,
			TotalRounds: snap.Round,
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	if _, err := sess.Advance(ctx); err != nil {
		s.sendErrorEvent(sub, err)
	}
	// The committed or suspended step reaches every subscriber through
	// the hub.
}

func (s *Server) sendErrorEvent(sub *hub.Subscriber, err error) {
	code, _, retryable := classifyError(err)
	s.hub.SendTo(sub, protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sub.SessionID,
		Code:      code,
		Detail:    err.Error(),
		Retryable: retryable,
	})
}

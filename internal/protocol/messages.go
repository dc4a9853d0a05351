package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/antoniostano/gavel/internal/debate"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	// client -> server
	TypeHumanInput MessageType = "human_input"
	TypeNextStep   MessageType = "next_step"
	TypePing       MessageType = "ping"

	// server -> client
	TypeConnected          MessageType = "connected"
	TypeStatusUpdate       MessageType = "status_update"
	TypeDebateUpdate       MessageType = "debate_update"
	TypeHumanInputRequired MessageType = "human_input_required"
	TypeDebateEnded        MessageType = "debate_ended"
	TypeErrorEvent         MessageType = "error"
	TypePong               MessageType = "pong"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// HumanInput supplies the pending speaker's utterance from a client.
type HumanInput struct {
	Type    MessageType `json:"type"`
	Role    debate.Role `json:"role"`
	Content string      `json:"content"`
}

// NextStep asks the server to auto-advance the debate one sub-turn.
type NextStep struct {
	Type MessageType `json:"type"`
}

type Ping struct {
	Type MessageType `json:"type"`
}

// Connected is the first message after a successful subscribe.
type Connected struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Role      debate.Role `json:"role,omitempty"`
}

// UtterancePayload mirrors one transcript entry on the wire.
type UtterancePayload struct {
	Role    debate.Role  `json:"role"`
	Phase   debate.Phase `json:"phase"`
	Round   int          `json:"round"`
	Content string       `json:"content"`
	IsHuman bool         `json:"is_human"`
	At      time.Time    `json:"at"`
}

// SnapshotPayload is the full session view sent to late joiners and
// snapshot requests. Earlier events are never replayed.
type SnapshotPayload struct {
	SessionID string             `json:"session_id"`
	Status    debate.Status      `json:"status"`
	Phase     debate.Phase       `json:"phase"`
	Speaker   debate.Role        `json:"speaker"`
	Round     int                `json:"round"`
	HumanRole debate.Role        `json:"human_role,omitempty"`
	Verdict   string             `json:"verdict,omitempty"`
	Log       []UtterancePayload `json:"log"`
}

type StatusUpdate struct {
	Type     MessageType     `json:"type"`
	Snapshot SnapshotPayload `json:"snapshot"`
}

// DebateUpdate announces one committed sub-turn.
type DebateUpdate struct {
	Type      MessageType       `json:"type"`
	SessionID string            `json:"session_id"`
	Phase     debate.Phase      `json:"phase"`
	Speaker   debate.Role       `json:"speaker"`
	Round     int               `json:"round"`
	Utterance *UtterancePayload `json:"utterance,omitempty"`
}

// HumanInputRequired announces that the debate is parked on a human
// speaker.
type HumanInputRequired struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Role      debate.Role `json:"role"`
	Prompt    string      `json:"prompt"`
}

type DebateEnded struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Verdict     string      `json:"verdict"`
	TotalRounds int         `json:"total_rounds"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
	Retryable bool        `json:"retryable"`
}

type Pong struct {
	Type MessageType `json:"type"`
}

// ParseClientMessage decodes and validates one inbound payload.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeHumanInput:
		var msg HumanInput
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, errors.New("invalid human_input: empty content")
		}
		if msg.Role != "" && !debate.ValidRole(msg.Role) {
			return nil, fmt.Errorf("invalid human_input: unknown role %q", msg.Role)
		}
		return msg, nil
	case TypeNextStep:
		return NextStep{Type: TypeNextStep}, nil
	case TypePing:
		return Ping{Type: TypePing}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// FromUtterance converts a transcript entry for the wire.
func FromUtterance(u debate.Utterance) UtterancePayload {
	return UtterancePayload{
		Role:    u.Role,
		Phase:   u.Phase,
		Round:   u.Round,
		Content: u.Content,
		IsHuman: u.IsHuman,
		At:      u.At,
	}
}

// FromSnapshot converts a state snapshot for the wire.
func FromSnapshot(sessionID string, s debate.State) SnapshotPayload {
	log := make([]UtterancePayload, 0, len(s.Log))
	for _, u := range s.Log {
		log = append(log, FromUtterance(u))
	}
	return SnapshotPayload{
		SessionID: sessionID,
		Status:    s.Status,
		Phase:     s.Phase,
		Speaker:   s.Speaker,
		Round:     s.Round,
		HumanRole: s.HumanRole,
		Verdict:   s.Verdict,
		Log:       log,
	}
}

// FromEvent converts an engine event into its outbound message.
func FromEvent(sessionID string, ev debate.Event) any {
	switch ev.Kind {
	case debate.EventHumanInputRequired:
		return HumanInputRequired{
			Type:      TypeHumanInputRequired,
			SessionID: sessionID,
			Role:      ev.Role,
			Prompt:    ev.Prompt,
		}
	case debate.EventDebateEnded:
		return DebateEnded{
			Type:        TypeDebateEnded,
			SessionID:   sessionID,
			Verdict:     ev.Verdict,
			TotalRounds: ev.Round,
		}
	default:
		msg := DebateUpdate{
			Type:      TypeDebateUpdate,
			SessionID: sessionID,
			Phase:     ev.Phase,
			Speaker:   ev.Speaker,
			Round:     ev.Round,
		}
		if ev.Utterance != nil {
			u := FromUtterance(*ev.Utterance)
			msg.Utterance = &u
		}
		return msg
	}
}

// MessageTypeOf reports the wire type of a message for metrics
// labelling.
func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case HumanInput:
		return m.Type, true
	case NextStep:
		return m.Type, true
	case Ping:
		return m.Type, true
	case Connected:
		return m.Type, true
	case StatusUpdate:
		return m.Type, true
	case DebateUpdate:
		return m.Type, true
	case HumanInputRequired:
		return m.Type, true
	case DebateEnded:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	case Pong:
		return m.Type, true
	default:
		return "", false
	}
}

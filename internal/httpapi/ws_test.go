package httpapi

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/generation"
	"github.com/antoniostano/gavel/internal/protocol"
)

func dialWS(t *testing.T, env *testEnv, sessionID string, role debate.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/v1/debates/" + sessionID + "/ws"
	if role != "" {
		url += "?role=" + string(role)
	}
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if res != nil {
		res.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func expectType(t *testing.T, conn *websocket.Conn, want protocol.MessageType) map[string]any {
	t.Helper()
	msg := readWS(t, conn)
	if got, _ := msg["type"].(string); got != string(want) {
		t.Fatalf("message type = %q, want %q (message: %v)", msg["type"], want, msg)
	}
	return msg
}

func writeWS(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

func TestWebSocketRejectsUnknownSessionAndRole(t *testing.T) {
	env := newTestEnv(t, generation.NewMockAdapter())
	base := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/v1/debates/"

	if _, res, err := websocket.DefaultDialer.Dial(base+"no-such-id/ws", nil); err == nil {
		res.Body.Close()
		t.Fatalf("dial to unknown session succeeded")
	}

	sess, err := env.registry.Create(debate.CaseContext{Description: "c"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, res, err := websocket.DefaultDialer.Dial(base+sess.ID+"/ws?role=witness", nil); err == nil {
		res.Body.Close()
		t.Fatalf("dial with unknown role succeeded")
	}
}

func TestWebSocketDebateFlow(t *testing.T) {
	env := newTestEnv(t, generation.NewMockAdapter())
	sess, err := env.registry.Create(debate.CaseContext{Description: "disputed delivery contract"}, debate.RoleDefendant)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	conn := dialWS(t, env, sess.ID, debate.RoleDefendant)
	expectType(t, conn, protocol.TypeConnected)
	expectType(t, conn, protocol.TypeStatusUpdate)

	writeWS(t, conn, map[string]string{"type": "ping"})
	expectType(t, conn, protocol.TypePong)

	// Garbage gets an error event, not a disconnect.
	writeWS(t, conn, map[string]string{"type": "subscribe"})
	expectType(t, conn, protocol.TypeErrorEvent)

	// Auto plaintiff opening.
	writeWS(t, conn, map[string]string{"type": "next_step"})
	msg := expectType(t, conn, protocol.TypeDebateUpdate)
	utt, _ := msg["utterance"].(map[string]any)
	if utt == nil || utt["role"] != string(debate.RolePlaintiff) {
		t.Fatalf("first update = %v", msg)
	}

	// The defendant is human: the next step suspends.
	writeWS(t, conn, map[string]string{"type": "next_step"})
	msg = expectType(t, conn, protocol.TypeHumanInputRequired)
	if msg["role"] != string(debate.RoleDefendant) || msg["prompt"] == "" {
		t.Fatalf("suspend message = %v", msg)
	}

	// A repeated next_step replays the pending prompt to the requester.
	writeWS(t, conn, map[string]string{"type": "next_step"})
	expectType(t, conn, protocol.TypeHumanInputRequired)

	writeWS(t, conn, map[string]any{
		"type":    "human_input",
		"role":    "defendant",
		"content": "the defence denies every claim",
	})
	msg = expectType(t, conn, protocol.TypeDebateUpdate)
	utt, _ = msg["utterance"].(map[string]any)
	if utt == nil || utt["is_human"] != true || utt["content"] != "the defence denies every claim" {
		t.Fatalf("human update = %v", msg)
	}

	if snap := sess.Snapshot(); snap.Phase != debate.PhaseCross || snap.Round != 1 {
		t.Fatalf("after ws flow: phase=%q round=%d", snap.Phase, snap.Round)
	}
}

func TestWebSocketSessionDeletionClosesConnection(t *testing.T) {
	env := newTestEnv(t, generation.NewMockAdapter())
	sess, err := env.registry.Create(debate.CaseContext{Description: "c"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	conn := dialWS(t, env, sess.ID, "")
	expectType(t, conn, protocol.TypeConnected)
	expectType(t, conn, protocol.TypeStatusUpdate)

	if err := env.registry.Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// The server closes the socket; the read eventually fails.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
	}
}

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

type liveReply struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

func TestLiveChannel(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", strings.NewReader(`{"level":"CP","subject":"maths"}`))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + sess.ID + "/live"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	exchange := func(msg map[string]string) liveReply {
		t.Helper()
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			t.Fatalf("write %v: %v", msg, err)
		}
		var reply liveReply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("read reply to %v: %v", msg, err)
		}
		return reply
	}

	reply := exchange(map[string]string{"type": "next"})
	if reply.Type != "next" || !strings.Contains(string(reply.Payload), `"id":"math-cp-006"`) {
		t.Errorf("next reply = %+v (%s)", reply, reply.Payload)
	}

	reply = exchange(map[string]string{"type": "hint", "exercise_id": "math-cp-006", "question_id": "q1"})
	if reply.Type != "hint" || !strings.Contains(string(reply.Payload), "Compte sur tes doigts.") {
		t.Errorf("hint reply = %+v (%s)", reply, reply.Payload)
	}

	reply = exchange(map[string]string{"type": "answer", "exercise_id": "math-cp-006", "question_id": "q1", "answer": "5"})
	if reply.Type != "answer" || !strings.Contains(string(reply.Payload), `"correct":true`) {
		t.Errorf("answer reply = %+v (%s)", reply, reply.Payload)
	}

	reply = exchange(map[string]string{"type": "answer", "exercise_id": "math-cp-006", "question_id": "q1", "answer": "5"})
	if reply.Type != "error" || reply.Error != "question_closed" {
		t.Errorf("second answer reply = %+v", reply)
	}

	reply = exchange(map[string]string{"type": "dance"})
	if reply.Type != "error" || reply.Error != "unknown_message_type" {
		t.Errorf("unknown type reply = %+v", reply)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestLiveChannel_UnknownSession(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/missing/live"
	_, resp, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("Dial() to unknown session should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("handshake response = %v, want 404", resp)
	}
}

package signaling

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer accepts one websocket connection and lets the test drive
// what it sends/expects over a plain *websocket.Conn.
func fakeServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	return srv
}

func wsURL(httpURL string) string {
	if len(httpURL) > 4 && httpURL[:4] == "http" {
		return "ws" + httpURL[4:]
	}
	return httpURL
}

func TestWSConnectionSendOffer(t *testing.T) {
	received := make(chan wireMessage, 1)
	srv := fakeServer(t, func(conn *websocket.Conn) {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		received <- msg
		time.Sleep(50 * time.Millisecond)
	})
	defer srv.Close()

	c := NewWSConnection(wsURL(srv.URL))
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.SendOffer("sess-1", "peer-2", "encoded-sdp"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Kind != KindOffer || msg.SessionID != "sess-1" || msg.Target != "peer-2" || msg.SDP != "encoded-sdp" {
			t.Fatalf("unexpected wire message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for offer to reach server")
	}
}

func TestWSConnectionInboundDecodesAnswer(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(wireMessage{Kind: KindAnswer, SessionID: "sess-1", SDP: "encoded-answer"})
		time.Sleep(50 * time.Millisecond)
	})
	defer srv.Close()

	c := NewWSConnection(wsURL(srv.URL))
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	select {
	case msg := <-c.Inbound():
		if msg.Kind != KindAnswer || msg.SessionID != "sess-1" || msg.SDP != "encoded-answer" {
			t.Fatalf("unexpected inbound message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound answer")
	}
}

func TestWSConnectionCloseIsIdempotent(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn) {
		time.Sleep(50 * time.Millisecond)
	})
	defer srv.Close()

	c := NewWSConnection(wsURL(srv.URL))
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	c.Close()
	c.Close()
}

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestConn upgrades one connection against a throwaway server and
// returns both ends: the server side goes to the hub, the client side
// reads what the hub pushes.
func dialTestConn(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverConn <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	select {
	case conn := <-serverConn:
		t.Cleanup(func() { conn.Close() })
		return conn, clientConn
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server side of connection")
		return nil, nil
	}
}

func TestHub_BroadcastReachesOnlyOwner(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	aliceServer, aliceClient := dialTestConn(t)
	bobServer, bobClient := dialTestConn(t)
	hub.addClient(aliceServer, "alice")
	hub.addClient(bobServer, "bob")

	hub.BroadcastLedgerUpdate("alice", "created")

	aliceClient.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := aliceClient.ReadMessage()
	if err != nil {
		t.Fatalf("alice read: %v", err)
	}
	if !strings.Contains(string(payload), `"ledger_update"`) ||
		!strings.Contains(string(payload), `"created"`) {
		t.Errorf("alice payload = %s", payload)
	}

	bobClient.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bobClient.ReadMessage(); err == nil {
		t.Error("bob received another user's update")
	}
}

func TestHub_AddAndRemoveAfterStopDoNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn, _ := dialTestConn(t)
	hub.addClient(conn, "alice")
	hub.Stop()

	// A client connecting or disconnecting while the hub is shutting
	// down must not strand its goroutine on a channel send.
	lateConn, _ := dialTestConn(t)
	done := make(chan struct{})
	go func() {
		hub.addClient(lateConn, "bob")
		hub.removeClient(conn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("addClient/removeClient blocked after Stop")
	}
}

package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Join(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	waitForRoom(t, hub, userID)
	return conn
}

func waitForRoom(t *testing.T, hub *Hub, userID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		joined := len(hub.rooms[userID]) > 0
		hub.mu.RUnlock()
		if joined {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s never joined", userID)
}

func TestPublishDeliversEvent(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "mila")

	require.NoError(t, hub.Publish("mila", Event{Type: "notification", Data: "hello"}))

	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "hello", got.Data)
}

func TestPublishToAbsentUserIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Publish("nobody", Event{Type: "notification"}))
}

// Two mutations fanning out to the same user publish from separate request
// goroutines; writes to one connection must be serialized.
func TestConcurrentPublishesToOneConnection(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "mila")

	const events = 24
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, hub.Publish("mila", Event{Type: "notification"}))
		}()
	}

	for i := 0; i < events; i++ {
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "notification", got.Type)
	}
	wg.Wait()
}

package alerts

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHubLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestHub_BroadcastsDispatchFailureToConnectedClient(t *testing.T) {
	hub := NewHub(testHubLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the server goroutine a moment to register the connection.
	time.Sleep(20 * time.Millisecond)

	jobID := uuid.New()
	hub.AlertDispatchFailure(jobID, "client-1", 3, "exhausted retries")

	var got DispatchFailureAlert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, "dispatch_failure", got.Type)
	assert.Equal(t, jobID, got.JobID)
	assert.Equal(t, "client-1", got.TicketClientID)
	assert.Equal(t, 3, got.Attempts)
}

func TestHub_AlertWithNoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(testHubLogger())
	assert.NotPanics(t, func() {
		hub.AlertDispatchFailure(uuid.New(), "client-2", 1, "no subscribers")
	})
}

func TestHub_UnregisterRemovesClient(t *testing.T) {
	hub := NewHub(testHubLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	hub.mu.Lock()
	clientCount := len(hub.clients)
	hub.mu.Unlock()
	require.Equal(t, 1, clientCount)

	conn.Close()
	time.Sleep(50 * time.Millisecond)

	hub.mu.Lock()
	clientCount = len(hub.clients)
	hub.mu.Unlock()
	assert.Equal(t, 0, clientCount)
}

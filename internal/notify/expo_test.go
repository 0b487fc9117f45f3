package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushGateway struct {
	mu      sync.Mutex
	batches [][]Message
}

func (g *pushGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var batch []Message
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g.mu.Lock()
		g.batches = append(g.batches, batch)
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"data":[]}`)
	}
}

func (g *pushGateway) received() [][]Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.batches
}

func makeMessages(n int) []Message {
	messages := make([]Message, n)
	for i := range messages {
		messages[i] = Message{
			To:    fmt.Sprintf("ExponentPushToken[%d]", i),
			Sound: "default",
			Title: "Nurture",
			Body:  "Time to water your Monstera",
		}
	}
	return messages
}

func TestExpoPusherChunksLargeBatches(t *testing.T) {
	gateway := &pushGateway{}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	pusher := NewExpoPusher(server.URL, nil)
	require.NoError(t, pusher.Send(context.Background(), makeMessages(250)))

	batches := gateway.received()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)

	// No message is dropped or duplicated across the chunk boundaries.
	seen := make(map[string]bool)
	for _, batch := range batches {
		for _, msg := range batch {
			assert.False(t, seen[msg.To])
			seen[msg.To] = true
		}
	}
	assert.Len(t, seen, 250)
}

func TestExpoPusherSingleRequestUnderLimit(t *testing.T) {
	gateway := &pushGateway{}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	pusher := NewExpoPusher(server.URL, nil)
	require.NoError(t, pusher.Send(context.Background(), makeMessages(100)))

	batches := gateway.received()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 100)
}

func TestExpoPusherSkipsEmptyBatch(t *testing.T) {
	gateway := &pushGateway{}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	pusher := NewExpoPusher(server.URL, nil)
	require.NoError(t, pusher.Send(context.Background(), nil))
	assert.Empty(t, gateway.received())
}

func TestExpoPusherPropagatesGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	pusher := NewExpoPusher(server.URL, nil)
	assert.Error(t, pusher.Send(ctx, makeMessages(5)))
}

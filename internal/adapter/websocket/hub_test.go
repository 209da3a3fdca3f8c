package websocket

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/mocks"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte, 4), operatorID: "op-1"}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	// Act
	hub.Broadcast([]byte(`{"type":"session.opened"}`))

	// Assert
	select {
	case msg := <-client.send:
		if string(msg) != `{"type":"session.opened"}` {
			t.Errorf("unexpected message %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("expected message to be delivered")
	}
}

func TestHub_FeedRelaysQueueMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	mq := mocks.NewMockMessageQueue()
	if err := hub.Feed(mq, "session.opened", "session.closed"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	_ = mq.Publish("session.closed", []byte("closed"))

	select {
	case msg := <-client.send:
		if string(msg) != "closed" {
			t.Errorf("expected closed, got %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("expected relayed message")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast([]byte("x"))
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected hub to stop")
	}
	if _, ok := <-client.send; ok {
		t.Error("expected client channel closed")
	}
}

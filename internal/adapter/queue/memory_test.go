package queue

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryQueue_FanOut(t *testing.T) {
	// Arrange
	q := NewMemoryQueue(zap.NewNop())
	var first, second []string
	_ = q.Subscribe("session.opened", func(data []byte) error {
		first = append(first, string(data))
		return nil
	})
	_ = q.Subscribe("session.opened", func(data []byte) error {
		second = append(second, string(data))
		return errors.New("handler failure is only logged")
	})

	// Act
	err := q.Publish("session.opened", []byte("s-1"))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("expected both handlers called once, got %d and %d", len(first), len(second))
	}
	if err := q.Publish("session.closed", []byte("s-1")); err != nil {
		t.Errorf("expected publish without subscribers to succeed, got %v", err)
	}
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue(zap.NewNop())
	_ = q.Close()

	if err := q.Publish("x", nil); !errors.Is(err, errQueueClosed) {
		t.Errorf("expected closed error, got %v", err)
	}
	if err := q.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail after close")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New("kafka", "", zap.NewNop()); err == nil {
		t.Error("expected error for unknown driver")
	}
	q, err := New("memory", "", zap.NewNop())
	if err != nil || q == nil {
		t.Fatalf("expected memory queue, got %v", err)
	}
}

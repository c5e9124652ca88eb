package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestWatermillPublisher_InProcess(t *testing.T) {
	publisher, err := NewWatermillPublisher(Config{}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	if publisher.Subscriber() == nil {
		t.Fatal("Expected an in-process subscriber without brokers")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := publisher.Subscriber().Subscribe(ctx, TopicEnrollmentCreated)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	event := NewEvent(TopicEnrollmentCreated, EnrollmentEvent{
		EnrollmentID: "enr-1",
		UserID:       "user-1",
		CourseID:     "course-1",
		Status:       "active",
	})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case msg := <-messages:
		defer msg.Ack()

		if msg.UUID != event.ID {
			t.Errorf("Expected message id %s, got %s", event.ID, msg.UUID)
		}
		if got := msg.Metadata.Get("event_type"); got != TopicEnrollmentCreated {
			t.Errorf("Expected event_type metadata %s, got %s", TopicEnrollmentCreated, got)
		}

		var decoded struct {
			Type   string          `json:"type"`
			Source string          `json:"source"`
			Data   EnrollmentEvent `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if decoded.Source != EventSource {
			t.Errorf("Expected source %s, got %s", EventSource, decoded.Source)
		}
		if decoded.Data.CourseID != "course-1" {
			t.Errorf("Expected course id course-1, got %s", decoded.Data.CourseID)
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for message")
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	t.Run("records events", func(t *testing.T) {
		_ = mock.Publish(ctx, NewEvent(TopicQuizAttemptRecorded, nil))
		_ = mock.Publish(ctx, NewEvent(TopicSubmissionSubmitted, nil))

		if got := len(mock.GetPublishedEvents()); got != 2 {
			t.Fatalf("Expected 2 events, got %d", got)
		}
		if got := len(mock.EventsOfType(TopicQuizAttemptRecorded)); got != 1 {
			t.Errorf("Expected 1 quiz event, got %d", got)
		}
	})

	t.Run("clear and fail", func(t *testing.T) {
		mock.ClearEvents()
		mock.FailWith(errors.New("broker down"))

		if err := mock.Publish(ctx, NewEvent(TopicEnrollmentCompleted, nil)); err == nil {
			t.Fatal("Expected publish error")
		}
		if got := len(mock.GetPublishedEvents()); got != 0 {
			t.Errorf("Expected no events, got %d", got)
		}
	})
}

package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/md-rashed-zaman/medportal/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type fakeInbox struct {
	seen map[string]bool
	err  error
}

func (f *fakeInbox) RecordInbox(_ context.Context, id, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func newConsumer(inbox Inbox, handler Handler) *Consumer {
	return &Consumer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:   inbox,
		handler: handler,
	}
}

func TestHandleSkipsDuplicates(t *testing.T) {
	calls := 0
	c := newConsumer(&fakeInbox{seen: map[string]bool{}}, func(context.Context, kafka.Message) error {
		calls++
		return nil
	})
	msg := kafka.Message{Topic: "doctor.schedule.updated.v1", Headers: kafkax.EventMeta{EventID: "e1", EventType: "doctor.schedule.updated.v1"}.Headers()}
	c.handle(context.Background(), msg)
	c.handle(context.Background(), msg)
	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}
}

func TestHandleWithoutInbox(t *testing.T) {
	calls := 0
	c := newConsumer(nil, func(context.Context, kafka.Message) error {
		calls++
		return errors.New("ignored")
	})
	msg := kafka.Message{Topic: "t", Key: []byte("k")}
	c.handle(context.Background(), msg)
	c.handle(context.Background(), msg)
	if calls != 2 {
		t.Fatalf("expected two handler calls, got %d", calls)
	}
}

func TestHandleInboxFailureSkipsHandler(t *testing.T) {
	c := newConsumer(&fakeInbox{err: errors.New("db down")}, func(context.Context, kafka.Message) error {
		t.Fatal("handler must not run")
		return nil
	})
	c.handle(context.Background(), kafka.Message{Topic: "t"})
}

func TestHandleHeaderlessChangesToOneKey(t *testing.T) {
	invalidations := 0
	c := newConsumer(&fakeInbox{seen: map[string]bool{}}, func(context.Context, kafka.Message) error {
		invalidations++
		return nil
	})
	first := kafka.Message{Topic: "doctor.schedule.updated.v1", Partition: 0, Offset: 41, Key: []byte("d1"), Value: []byte(`{"monday":[]}`)}
	second := kafka.Message{Topic: "doctor.schedule.updated.v1", Partition: 0, Offset: 42, Key: []byte("d1"), Value: []byte(`{"tuesday":[]}`)}

	c.handle(context.Background(), first)
	c.handle(context.Background(), second)
	if invalidations != 2 {
		t.Fatalf("expected both schedule changes to run, got %d", invalidations)
	}

	c.handle(context.Background(), second)
	if invalidations != 2 {
		t.Fatalf("expected a redelivered record to be skipped, got %d", invalidations)
	}
}

package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher_DeliversToSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var seen []string

	d.Subscribe(EventTaskCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TaskID)
		return errors.New("boom")
	})
	d.Subscribe(EventTaskCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TaskID)
		return nil
	})
	d.Subscribe(EventTaskDeleted, func(_ context.Context, e Event) error {
		seen = append(seen, "deleted:"+e.TaskID)
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTaskCreated, TaskID: "t1"}); err != nil {
		t.Fatalf("publish must not fail: %v", err)
	}
	if len(seen) != 2 || seen[0] != "first:t1" || seen[1] != "second:t1" {
		t.Fatalf("unexpected deliveries %v", seen)
	}
}

package domain

import (
	"testing"
	"time"
)

func TestParseTaskStatus_ClosedVocabulary(t *testing.T) {
	for _, valid := range []string{"pending", "in-progress", "completed"} {
		if got, ok := ParseTaskStatus(valid); !ok || string(got) != valid {
			t.Fatalf("expected %q to be accepted, got %q/%v", valid, got, ok)
		}
	}
	for _, invalid := range []string{"archived", "", "Pending", "in_progress", "done"} {
		if _, ok := ParseTaskStatus(invalid); ok {
			t.Fatalf("expected %q to be rejected", invalid)
		}
	}
}

func TestParseTaskPriority(t *testing.T) {
	if _, ok := ParseTaskPriority("urgent"); ok {
		t.Fatalf("expected urgent to be rejected")
	}
	if got, ok := ParseTaskPriority("high"); !ok || got != TaskPriorityHigh {
		t.Fatalf("expected high, got %q/%v", got, ok)
	}
}

func TestParseDueDate(t *testing.T) {
	got, ok := ParseDueDate("2026-11-01")
	if !ok {
		t.Fatalf("expected date-only value to parse")
	}
	if !got.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", got)
	}

	got, ok = ParseDueDate("2026-11-01T10:30:00+02:00")
	if !ok {
		t.Fatalf("expected RFC3339 value to parse")
	}
	if got.Hour() != 8 || got.Location() != time.UTC {
		t.Fatalf("expected UTC normalisation, got %s", got)
	}

	if _, ok := ParseDueDate("next tuesday"); ok {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(""); !ok || r != RoleUser {
		t.Fatalf("expected empty role to default to user")
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestTaskIsAssignedTo(t *testing.T) {
	task := &Task{AssignedTo: "u1"}
	if !task.IsAssignedTo("u1") || task.IsAssignedTo("u2") || task.IsAssignedTo("") {
		t.Fatalf("unexpected ownership result")
	}
	var nilTask *Task
	if nilTask.IsAssignedTo("u1") {
		t.Fatalf("nil task must not be owned")
	}
}

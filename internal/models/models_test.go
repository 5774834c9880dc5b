package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("JANITOR"); err == nil {
		t.Error("expected an error for an unknown role")
	}
	if !HasRole([]RoleType{RoleNurse, RoleAgent}, RoleAgent) || HasRole(nil, RoleAdmin) {
		t.Error("HasRole mismatch")
	}
}

func TestAgentTaskTransitions(t *testing.T) {
	tests := []struct {
		from, to AgentTaskStatus
		want     bool
	}{
		{TaskPending, TaskInProgress, true},
		{TaskPending, TaskCompleted, true},
		{TaskPending, TaskFailed, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskInProgress, TaskFailed, true},
		{TaskInProgress, TaskPending, false},
		{TaskCompleted, TaskPending, false},
		{TaskFailed, TaskInProgress, false},
		{TaskCompleted, TaskCompleted, true},
		{TaskPending, "DONE", false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestDateTimeJSON(t *testing.T) {
	dt := NewDateTime(time.Date(2025, 3, 1, 8, 30, 0, 0, time.Local))
	b, err := json.Marshal(dt)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-03-01T08:30:00"` {
		t.Errorf("unexpected encoding %s", b)
	}

	var back DateTime
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(dt.Time) {
		t.Errorf("round trip: %v != %v", back, dt)
	}

	var rfc DateTime
	if err := json.Unmarshal([]byte(`"2025-03-01T08:30:00Z"`), &rfc); err != nil {
		t.Fatal(err)
	}
	if !rfc.Equal(time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("RFC 3339 input parsed as %v", rfc)
	}

	var null DateTime
	if err := json.Unmarshal([]byte("null"), &null); err != nil || !null.IsZero() {
		t.Errorf("null should leave a zero value, got %v (%v)", null, err)
	}
	if err := json.Unmarshal([]byte(`"next tuesday"`), &null); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	b, _ := json.Marshal(d)
	if string(b) != `"2024-02-29"` {
		t.Errorf("unexpected encoding %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil || !back.Equal(d.Time) {
		t.Errorf("round trip failed: %v (%v)", back, err)
	}
	if err := json.Unmarshal([]byte(`"2024-02-30"`), &back); err == nil {
		t.Error("expected an error for an invalid day")
	}

	local := time.Date(2025, 6, 15, 23, 30, 0, 0, time.FixedZone("X", 5*3600))
	if got := DateOf(local).String(); got != "2025-06-15" {
		t.Errorf("DateOf kept the wall-clock day: got %s", got)
	}
}

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLunchboxTransitions(t *testing.T) {
	tests := []struct {
		from, to LunchboxStatus
		want     bool
	}{
		{LunchboxDraft, LunchboxAssigned, true},
		{LunchboxDraft, LunchboxConfirmed, true},
		{LunchboxAssigned, LunchboxCustomized, true},
		{LunchboxCustomized, LunchboxConfirmed, true},
		{LunchboxConfirmed, LunchboxConfirmed, true},
		{LunchboxConfirmed, LunchboxDraft, false},
		{LunchboxCustomized, LunchboxAssigned, false},
		{LunchboxDraft, LunchboxArchived, true},
		{LunchboxConfirmed, LunchboxDeleted, true},
		{LunchboxArchived, LunchboxDraft, false},
		{LunchboxArchived, LunchboxDeleted, false},
		{LunchboxDeleted, LunchboxConfirmed, false},
		{LunchboxDeleted, LunchboxDeleted, true},
		{LunchboxDraft, LunchboxStatus("Perdida"), false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestLunchboxEditable(t *testing.T) {
	for _, s := range []LunchboxStatus{LunchboxDraft, LunchboxAssigned, LunchboxCustomized} {
		if !s.Editable() {
			t.Errorf("%s should be editable", s)
		}
	}
	for _, s := range []LunchboxStatus{LunchboxConfirmed, LunchboxArchived, LunchboxDeleted} {
		if s.Editable() {
			t.Errorf("%s should not be editable", s)
		}
	}
}

func TestLunchboxPatchApply(t *testing.T) {
	lb := Lunchbox{Name: "Lunes", Description: "fruta", Status: LunchboxDraft}
	name := "Martes"
	LunchboxPatch{Name: &name}.Apply(&lb)

	if lb.Name != "Martes" {
		t.Errorf("name = %q, want %q", lb.Name, "Martes")
	}
	if lb.Description != "fruta" {
		t.Errorf("description = %q, want unchanged", lb.Description)
	}
	if !(LunchboxPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.March, 9)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2026-03-09"` {
		t.Errorf("json = %s, want %q", data, "2026-03-09")
	}

	var got Date
	if err := json.Unmarshal([]byte(`"2026-12-01"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.String() != "2026-12-01" {
		t.Errorf("date = %s, want 2026-12-01", got)
	}

	if err := json.Unmarshal([]byte(`"01/12/2026"`), &got); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestExceptionCovers(t *testing.T) {
	end := NewDate(2026, time.May, 10)
	e := RestrictionException{StartDate: NewDate(2026, time.May, 1), EndDate: &end}

	if !e.Covers(NewDate(2026, time.May, 5)) {
		t.Error("expected exception to cover May 5")
	}
	if !e.Covers(end) {
		t.Error("expected exception to cover its end date")
	}
	if e.Covers(NewDate(2026, time.April, 30)) {
		t.Error("exception should not cover a day before it starts")
	}

	open := RestrictionException{StartDate: NewDate(2026, time.May, 1)}
	if !open.Covers(NewDate(2027, time.January, 1)) {
		t.Error("open-ended exception should cover later days")
	}
}

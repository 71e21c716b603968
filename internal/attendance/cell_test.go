package attendance

import (
	"errors"
	"testing"

	"attendtrack/internal/model"
)

func TestCellCommit(t *testing.T) {
	c := NewCell("math", "2026-01-19", model.PeriodPending)
	if c.State != CellPending {
		t.Fatalf("initial state = %s", c.State)
	}
	if err := c.Submit(model.PeriodAttended); err != nil {
		t.Fatal(err)
	}
	if c.State != CellSubmitting || c.Status != model.PeriodAttended {
		t.Fatalf("after submit = %+v", c)
	}
	if err := c.Submit(model.PeriodMissed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double submit error = %v", err)
	}
	rec := &model.AttendanceRecord{ID: "r1"}
	if err := c.Commit(rec); err != nil {
		t.Fatal(err)
	}
	if c.State != CellCommitted || c.Record != rec || c.Status != model.PeriodAttended {
		t.Errorf("after commit = %+v", c)
	}
}

func TestCellRevert(t *testing.T) {
	c := NewCell("math", "2026-01-19", model.PeriodMissed)
	_ = c.Submit(model.PeriodExcused)
	if err := c.Revert(errors.New("store down")); err != nil {
		t.Fatal(err)
	}
	if c.State != CellReverted || c.Status != model.PeriodMissed || c.Error != "store down" {
		t.Errorf("after revert = %+v", c)
	}

	// a reverted cell can be edited again
	if err := c.Submit(model.PeriodAttended); err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if c.Error != "" || c.Previous != model.PeriodMissed {
		t.Errorf("resubmitted cell = %+v", c)
	}
}

func TestCellRejectsSettlingWithoutSubmit(t *testing.T) {
	c := NewCell("math", "2026-01-19", model.PeriodPending)
	if err := c.Commit(nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Commit() from pending = %v", err)
	}
	if err := c.Revert(nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Revert() from pending = %v", err)
	}
}

package attendance

import (
	"errors"
	"fmt"

	"attendtrack/internal/model"
)

// CellState is the lifecycle of one editable (subject, date) cell:
// Pending -> Submitting -> Committed | RevertedWithError. A settled cell can be
// submitted again.
type CellState string

const (
	CellPending    CellState = "pending"
	CellSubmitting CellState = "submitting"
	CellCommitted  CellState = "committed"
	CellReverted   CellState = "reverted_with_error"
)

// ErrInvalidTransition is returned for a transition the state machine forbids.
var ErrInvalidTransition = errors.New("invalid cell transition")

// Cell tracks one optimistic status change. Status is what the cell shows:
// the target while submitting, the prior status again after a revert.
type Cell struct {
	SubjectID string                  `json:"subjectId"`
	Date      string                  `json:"date"`
	State     CellState               `json:"state"`
	Status    model.PeriodStatus      `json:"status"`
	Previous  model.PeriodStatus      `json:"previous"`
	Record    *model.AttendanceRecord `json:"record,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// NewCell starts a cell in Pending showing its current status.
func NewCell(subjectID, date string, current model.PeriodStatus) *Cell {
	return &Cell{SubjectID: subjectID, Date: date, State: CellPending, Status: current, Previous: current}
}

// Submit applies target optimistically.
func (c *Cell) Submit(target model.PeriodStatus) error {
	if c.State == CellSubmitting {
		return fmt.Errorf("%w: already submitting", ErrInvalidTransition)
	}
	c.Previous = c.Status
	c.Status = target
	c.State = CellSubmitting
	c.Error = ""
	return nil
}

// Commit settles a submission. rec is nil when the cell went back to pending.
func (c *Cell) Commit(rec *model.AttendanceRecord) error {
	if c.State != CellSubmitting {
		return fmt.Errorf("%w: commit from %s", ErrInvalidTransition, c.State)
	}
	c.Record = rec
	c.State = CellCommitted
	return nil
}

// Revert undoes the optimistic status after a failed write.
func (c *Cell) Revert(cause error) error {
	if c.State != CellSubmitting {
		return fmt.Errorf("%w: revert from %s", ErrInvalidTransition, c.State)
	}
	c.Status = c.Previous
	c.State = CellReverted
	if cause != nil {
		c.Error = cause.Error()
	}
	return nil
}

package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an action is not legal from the
// record's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// Action names a workflow step that may move a record between statuses.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionPayPartial Action = "pay_partial"
	ActionPayFull    Action = "pay_full"
)

// TransitionTable maps current status × action to the next status.
// Any pair missing from the table is rejected.
type TransitionTable[S ~string] map[S]map[Action]S

// Next returns the status reached by applying action to from.
func (t TransitionTable[S]) Next(from S, action Action) (S, error) {
	if next, ok := t[from][action]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, from)
}

// Allows reports whether action is legal from the given status.
func (t TransitionTable[S]) Allows(from S, action Action) bool {
	_, ok := t[from][action]
	return ok
}

// Page is one page of a filtered list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// PageSize is the fixed number of rows returned per list page.
const PageSize = 20

// PageOffset converts a 1-based page number into a row offset.
func PageOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

// Package todo is a todo assistant backed by an in-memory store.
package todo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status of a todo
type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

// DateLayout formats planned dates in reports.
const DateLayout = "2006-01-02T15:04:05"

// Tools report these capitalized, see toolMessage.
var (
	ErrTitleRequired   = errors.New("title is required and cannot be empty")
	ErrExists          = errors.New("todo already exists")
	ErrNotFound        = errors.New("todo does not exist")
	ErrNothingToUpdate = errors.New("at least one of status or planned_date must be provided")
	ErrInvalidStatus   = errors.New("status must be one of: pending, done, canceled")
	ErrInvalidDate     = errors.New("invalid date format")
)

// Todo is one entry of the store
type Todo struct {
	Title       string
	Status      Status
	PlannedDate time.Time
}

// Report renders the todo the way tools return it.
func (t Todo) Report() map[string]any {
	return map[string]any{
		"title":        t.Title,
		"status":       string(t.Status),
		"planned_date": t.PlannedDate.Format(DateLayout),
	}
}

// Date is a calendar date as sent by the model.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time validates d and converts it to midnight local time.
func (d Date) Time() (time.Time, error) {
	if d.Month < 1 || d.Month > 12 {
		return time.Time{}, fmt.Errorf("%w: Month must be between 1 and 12", ErrInvalidDate)
	}
	if d.Day < 1 || d.Day > 31 {
		return time.Time{}, fmt.Errorf("%w: Day must be between 1 and 31", ErrInvalidDate)
	}
	if d.Year < 1 || d.Year > 9999 {
		return time.Time{}, fmt.Errorf("%w: year %d is out of range", ErrInvalidDate, d.Year)
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.Local)
	if t.Day() != d.Day {
		return time.Time{}, fmt.Errorf("%w: day is out of range for month", ErrInvalidDate)
	}
	return t, nil
}

// Store keeps todos by title. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	todos map[string]Todo
	now   func() time.Time
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{todos: make(map[string]Todo), now: time.Now}
}

// Create adds a pending todo planned for date, or for now when date is nil.
func (s *Store) Create(title string, date *Date) (Todo, error) {
	if strings.TrimSpace(title) == "" {
		return Todo{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[title]; ok {
		return Todo{}, ErrExists
	}
	planned := s.now().Truncate(time.Second)
	if date != nil {
		t, err := date.Time()
		if err != nil {
			return Todo{}, err
		}
		planned = t
	}
	todo := Todo{Title: title, Status: StatusPending, PlannedDate: planned}
	s.todos[title] = todo
	return todo, nil
}

// Update changes the status, the planned date or both.
func (s *Store) Update(title string, status Status, date *Date) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[title]
	if !ok {
		return Todo{}, ErrNotFound
	}
	if status == "" && date == nil {
		return Todo{}, ErrNothingToUpdate
	}
	if status != "" {
		switch status {
		case StatusPending, StatusDone, StatusCanceled:
			todo.Status = status
		default:
			return Todo{}, ErrInvalidStatus
		}
	}
	if date != nil {
		t, err := date.Time()
		if err != nil {
			return Todo{}, err
		}
		todo.PlannedDate = t
	}
	s.todos[title] = todo
	return todo, nil
}

// All returns a copy of the todos keyed by title
func (s *Store) All() map[string]Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Todo, len(s.todos))
	for k, v := range s.todos {
		out[k] = v
	}
	return out
}

package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskNameEmpty is returned when a task's name is empty.
	ErrTaskNameEmpty = errors.New("task name cannot be empty")

	// ErrTaskLaneEmpty is returned when a task's swimlane ID is empty or nil.
	ErrTaskLaneEmpty = errors.New("task swimlane ID cannot be empty")

	// ErrCommentTextEmpty is returned when a comment's text is empty.
	ErrCommentTextEmpty = errors.New("comment text cannot be empty")
)

// TaskStatus identifies the board column a task currently sits in.
type TaskStatus string

// Known task status values.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// IsValid reports whether the status is one of the known column values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusBlocked:
		return true
	}
	return false
}

// Comment is a single entry in a task's ordered comment list.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComment creates a structured comment with a fresh ID and timestamps.
func NewComment(text string) Comment {
	now := time.Now().UTC()
	return Comment{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CommentList is the ordered list of comments embedded in a task.
// It is persisted as a JSONB array.
type CommentList []Comment

// DecodeComments parses the persisted JSON form of a task's comment list.
//
// Two persisted forms are readable: the structured form (array of comment
// objects) and a legacy form (array of plain strings). Legacy entries are
// upgraded in place to structured comments with fresh IDs and current
// timestamps, preserving original text and order. The second return value
// reports whether any entry was upgraded, so callers know the structured
// form still needs to be written back.
//
// Malformed JSON decodes as an empty list rather than an error.
func DecodeComments(raw []byte) (CommentList, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}

	comments := make(CommentList, 0, len(elements))
	migrated := false
	for _, el := range elements {
		var c Comment
		if err := json.Unmarshal(el, &c); err == nil {
			if c.ID == uuid.Nil {
				// Structured entry persisted without an ID; treat as legacy.
				c = NewComment(c.Text)
				migrated = true
			}
			comments = append(comments, c)
			continue
		}

		var text string
		if err := json.Unmarshal(el, &text); err == nil {
			comments = append(comments, NewComment(text))
			migrated = true
			continue
		}

		// Unreadable element; skip rather than fail the whole list.
		migrated = true
	}

	return comments, migrated
}

// Task represents a single card on the board.
//
// Position is unique and dense within a (SwimLaneID, Status) partition;
// moving a task may shift other tasks' positions to keep the partition dense.
type Task struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Status     TaskStatus  `json:"status"`
	SwimLaneID uuid.UUID   `json:"swim_lane_id"`
	Position   int         `json:"position"`
	Tags       []string    `json:"tags,omitempty"`
	Comments   CommentList `json:"comments"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewTask creates a new Task in the given lane and status column at the given
// position. It generates a new UUID for the task ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewTask(laneID uuid.UUID, name string, status TaskStatus, position int) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}

	task := &Task{
		ID:         uuid.New(),
		Name:       name,
		Status:     status,
		SwimLaneID: laneID,
		Position:   position,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Name == "" {
		return ErrTaskNameEmpty
	}

	if t.SwimLaneID == uuid.Nil {
		return ErrTaskLaneEmpty
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	return nil
}

// AddComment appends a new structured comment to the task's list and returns
// it. The task's UpdatedAt timestamp is bumped.
func (t *Task) AddComment(text string) (Comment, error) {
	if text == "" {
		return Comment{}, ErrCommentTextEmpty
	}

	comment := NewComment(text)
	t.Comments = append(t.Comments, comment)
	t.UpdatedAt = time.Now().UTC()
	return comment, nil
}

// UpdateComment replaces the text of the comment with the given ID, bumping
// its UpdatedAt timestamp. Returns ErrCommentNotFound if no comment with that
// ID exists.
func (t *Task) UpdateComment(commentID uuid.UUID, text string) (Comment, error) {
	if text == "" {
		return Comment{}, ErrCommentTextEmpty
	}

	for i := range t.Comments {
		if t.Comments[i].ID == commentID {
			t.Comments[i].Text = text
			t.Comments[i].UpdatedAt = time.Now().UTC()
			t.UpdatedAt = time.Now().UTC()
			return t.Comments[i], nil
		}
	}

	return Comment{}, ErrCommentNotFound
}

// DeleteComment removes the comment with the given ID from the task's list.
// Removing an absent ID is a no-op; the returned boolean reports whether a
// comment was actually removed.
func (t *Task) DeleteComment(commentID uuid.UUID) bool {
	for i := range t.Comments {
		if t.Comments[i].ID == commentID {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

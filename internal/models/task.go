package models

import "github.com/thenoetrevino/kanso/internal/types"

// Task is a single card on the board. Status carries the owning column's id
// and a denormalized copy of its name.
type Task struct {
	ID          types.TaskID
	Title       string
	Description string
	Subtasks    []Subtask
	Status      ColumnRef
}

// Subtask is a checklist entry on a task. Subtasks have no independent
// identity: updates replace the whole slice, never address a single entry.
type Subtask struct {
	Title       string
	IsCompleted bool
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := &Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

// CompletedSubtasks counts the checked entries, used for "m of n" summaries.
func (t *Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

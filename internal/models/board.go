package models

import "github.com/thenoetrevino/kanso/internal/types"

// Board is the top-level organizational unit: a named, ordered set of columns
// owned by a single user. Column order is significant and matches the logical
// linked-list order reconstructed from storage.
type Board struct {
	ID      types.BoardID
	Name    string
	Columns []*Column
}

// BoardSummary is a DTO for the board list view: id and name only, in list order.
type BoardSummary struct {
	ID   types.BoardID
	Name string
}

// Column is an ordered task container inside a board (e.g. "Todo", "Doing").
type Column struct {
	ID    types.ColumnID
	Name  string
	Tasks []*Task
}

// ColumnRef is the denormalized column reference stored on each task. Tasks
// carry a copy of their column's name so board rendering never needs a join;
// the cost is that column renames fan out to every task in the column.
type ColumnRef struct {
	ID   types.ColumnID
	Name string
}

// Clone returns a deep copy of the board. Repositories hand out clones so
// callers can never mutate shared state through a returned entity.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{ID: b.ID, Name: b.Name}
	if b.Columns != nil {
		out.Columns = make([]*Column, len(b.Columns))
		for i, c := range b.Columns {
			out.Columns[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the column and its tasks.
func (c *Column) Clone() *Column {
	if c == nil {
		return nil
	}
	out := &Column{ID: c.ID, Name: c.Name}
	if c.Tasks != nil {
		out.Tasks = make([]*Task, len(c.Tasks))
		for i, t := range c.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}

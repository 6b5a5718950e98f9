// Package docstore defines the document-store capability the persistent
// repository and subscription cache are written against: one-shot snapshot
// reads, push subscriptions, id allocation, and atomic batched writes. The
// store guarantees batch atomicity only; there is no transactional read
// across documents.
package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/thenoetrevino/kanso/internal/types"
)

// ColumnEntry is one column inside a board document's columns map: its name
// and the id of the column after it.
type ColumnEntry struct {
	Name   string          `json:"name"`
	NextID *types.ColumnID `json:"nextId"`
}

// BoardDoc is a persisted board record. Column order lives in the per-entry
// NextID pointers; board order in the user's list lives in the board-level
// NextID.
type BoardDoc struct {
	Owner   types.UserID                   `json:"owner"`
	Name    string                         `json:"name"`
	Columns map[types.ColumnID]ColumnEntry `json:"columns"`
	NextID  *types.BoardID                 `json:"nextId"`
}

// StatusEntry is the denormalized column reference on a task document.
type StatusEntry struct {
	ID   types.ColumnID `json:"id"`
	Name string         `json:"name"`
}

// SubtaskEntry is one checklist entry on a task document.
type SubtaskEntry struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// TaskDoc is a persisted task record in a board-scoped sub-collection.
type TaskDoc struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Subtasks    []SubtaskEntry `json:"subtasks"`
	Status      StatusEntry    `json:"status"`
	NextID      *types.TaskID  `json:"nextId"`
}

// Clone returns a deep copy of the board document.
func (d BoardDoc) Clone() BoardDoc {
	out := d
	if d.Columns != nil {
		out.Columns = make(map[types.ColumnID]ColumnEntry, len(d.Columns))
		for id, entry := range d.Columns {
			out.Columns[id] = entry
		}
	}
	return out
}

// Clone returns a deep copy of the task document.
func (d TaskDoc) Clone() TaskDoc {
	out := d
	if d.Subtasks != nil {
		out.Subtasks = append([]SubtaskEntry(nil), d.Subtasks...)
	}
	return out
}

// deleteField is the sentinel marking a field for removal in an update.
type deleteField struct{}

// Delete marks a field path for removal, e.g. dropping a column entry from a
// board document's columns map.
var Delete = deleteField{}

// Batch is an atomic multi-document write. Operations are staged and applied
// all-or-nothing on Commit; a failed commit leaves the store untouched.
// Update values use store field paths ("name", "nextId",
// "columns.<id>.nextId", "status.name", ...).
type Batch interface {
	SetBoard(id types.BoardID, doc BoardDoc)
	UpdateBoard(id types.BoardID, fields map[string]any)
	DeleteBoard(id types.BoardID)

	SetTask(boardID types.BoardID, id types.TaskID, doc TaskDoc)
	UpdateTask(boardID types.BoardID, id types.TaskID, fields map[string]any)
	DeleteTask(boardID types.BoardID, id types.TaskID)

	Commit(ctx context.Context) error
}

// Store is the adapter contract. Snapshot callbacks fire once per committed
// batch touching their scope; unsubscribe functions are idempotent.
type Store interface {
	GetUserBoardDocs(ctx context.Context, userID types.UserID) (map[types.BoardID]BoardDoc, error)
	GetBoardDoc(ctx context.Context, boardID types.BoardID) (BoardDoc, bool, error)
	GetBoardTaskDocs(ctx context.Context, boardID types.BoardID) (map[types.TaskID]TaskDoc, error)

	OnUserBoardDocsSnapshot(userID types.UserID, cb func(map[types.BoardID]BoardDoc)) func()
	OnBoardDocSnapshot(boardID types.BoardID, cb func(doc BoardDoc, exists bool)) func()
	OnBoardTaskDocsSnapshot(boardID types.BoardID, cb func(map[types.TaskID]TaskDoc)) func()

	StartBatch() Batch

	// Reference allocation: ids are minted before the documents exist so a
	// whole entity graph can be written in one batch.
	NewBoardID() types.BoardID
	NewColumnID() types.ColumnID
	NewTaskID(boardID types.BoardID) types.TaskID
}

// applyBoardFields applies field-path updates to a board document in place.
// Both adapter implementations stage updates through this, so path handling
// cannot drift between them.
func applyBoardFields(doc *BoardDoc, fields map[string]any) error {
	for path, value := range fields {
		parts := strings.SplitN(path, ".", 3)
		switch parts[0] {
		case "name":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("board field %q: expected string, got %T", path, value)
			}
			doc.Name = v
		case "nextId":
			next, err := asBoardID(path, value)
			if err != nil {
				return err
			}
			doc.NextID = next
		case "columns":
			if len(parts) == 1 {
				v, ok := value.(map[types.ColumnID]ColumnEntry)
				if !ok {
					return fmt.Errorf("board field %q: expected column map, got %T", path, value)
				}
				doc.Columns = v
				continue
			}
			colID := types.ColumnID(parts[1])
			if len(parts) == 2 {
				if _, isDelete := value.(deleteField); isDelete {
					delete(doc.Columns, colID)
					continue
				}
				v, ok := value.(ColumnEntry)
				if !ok {
					return fmt.Errorf("board field %q: expected column entry, got %T", path, value)
				}
				if doc.Columns == nil {
					doc.Columns = map[types.ColumnID]ColumnEntry{}
				}
				doc.Columns[colID] = v
				continue
			}
			entry, ok := doc.Columns[colID]
			if !ok {
				return fmt.Errorf("board field %q: no such column", path)
			}
			switch parts[2] {
			case "name":
				v, ok := value.(string)
				if !ok {
					return fmt.Errorf("board field %q: expected string, got %T", path, value)
				}
				entry.Name = v
			case "nextId":
				next, err := asColumnID(path, value)
				if err != nil {
					return err
				}
				entry.NextID = next
			default:
				return fmt.Errorf("board field %q: unknown path", path)
			}
			doc.Columns[colID] = entry
		default:
			return fmt.Errorf("board field %q: unknown path", path)
		}
	}
	return nil
}

// applyTaskFields applies field-path updates to a task document in place.
func applyTaskFields(doc *TaskDoc, fields map[string]any) error {
	for path, value := range fields {
		switch path {
		case "title":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("task field %q: expected string, got %T", path, value)
			}
			doc.Title = v
		case "description":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("task field %q: expected string, got %T", path, value)
			}
			doc.Description = v
		case "subtasks":
			v, ok := value.([]SubtaskEntry)
			if !ok {
				return fmt.Errorf("task field %q: expected subtask slice, got %T", path, value)
			}
			doc.Subtasks = v
		case "status":
			v, ok := value.(StatusEntry)
			if !ok {
				return fmt.Errorf("task field %q: expected status entry, got %T", path, value)
			}
			doc.Status = v
		case "status.id":
			v, ok := value.(types.ColumnID)
			if !ok {
				return fmt.Errorf("task field %q: expected column id, got %T", path, value)
			}
			doc.Status.ID = v
		case "status.name":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("task field %q: expected string, got %T", path, value)
			}
			doc.Status.Name = v
		case "nextId":
			next, err := asTaskID(path, value)
			if err != nil {
				return err
			}
			doc.NextID = next
		default:
			return fmt.Errorf("task field %q: unknown path", path)
		}
	}
	return nil
}

func asBoardID(path string, value any) (*types.BoardID, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *types.BoardID:
		return v, nil
	case types.BoardID:
		return &v, nil
	default:
		return nil, fmt.Errorf("field %q: expected board id or nil, got %T", path, value)
	}
}

func asColumnID(path string, value any) (*types.ColumnID, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *types.ColumnID:
		return v, nil
	case types.ColumnID:
		return &v, nil
	default:
		return nil, fmt.Errorf("field %q: expected column id or nil, got %T", path, value)
	}
}

func asTaskID(path string, value any) (*types.TaskID, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *types.TaskID:
		return v, nil
	case types.TaskID:
		return &v, nil
	default:
		return nil, fmt.Errorf("field %q: expected task id or nil, got %T", path, value)
	}
}

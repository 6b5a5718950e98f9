// Package repository defines the board persistence contract and its two
// implementations: an in-memory reference variant used for demo mode and as
// executable intended-behavior, and a document-store variant that encodes
// collection order as linked lists over batched writes.
package repository

import (
	"context"

	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

// NewColumn describes a column to create alongside a new board.
type NewColumn struct {
	Name string
}

// NewBoard describes a board to create: a name and its initial column set,
// possibly empty.
type NewBoard struct {
	Name    string
	Columns []NewColumn
}

// KeptColumn is one entry of a full-replacement column description in a board
// update. IsAdded marks columns that do not exist yet; position in the slice
// determines final order.
type KeptColumn struct {
	ID      types.ColumnID
	Name    string
	IsAdded bool
}

// BoardChanges describes a board update. Nil Name leaves the name unchanged.
// When ColumnsKept is non-nil it fully determines the surviving column order;
// ColumnsDeleted alone removes columns while preserving the rest's relative
// order.
type BoardChanges struct {
	ID             types.BoardID
	Name           *string
	ColumnsKept    []KeptColumn
	ColumnsDeleted []types.ColumnID
}

// NewTask describes a task to create against a (board, column) pair.
type NewTask struct {
	Title       string
	Description string
	Subtasks    []models.Subtask
}

// TaskChanges describes a task update. Nil fields leave the current value
// unchanged; a non-nil Subtasks slice replaces the checklist wholesale.
type TaskChanges struct {
	ID          types.TaskID
	Title       *string
	Description *string
	Subtasks    []models.Subtask
}

// BoardRepository is the contract both variants implement, so either can be
// swapped in transparently at startup.
//
// Index parameters are optional: nil or out-of-range means append. Listener
// unsubscribe functions are idempotent and never panic. DeleteBoard and
// DeleteTask silently no-op on a missing id; callers must not rely on an
// error signal from them.
type BoardRepository interface {
	GetBoardList(ctx context.Context, userID types.UserID) ([]*models.BoardSummary, error)
	GetBoard(ctx context.Context, userID types.UserID, boardID types.BoardID) (*models.Board, error)

	ListenToBoardListChange(userID types.UserID, cb func([]*models.BoardSummary)) (func(), error)
	ListenToBoardChange(userID types.UserID, boardID types.BoardID, cb func(*models.Board)) (func(), error)

	AddBoard(ctx context.Context, userID types.UserID, board NewBoard, index *int) (types.BoardID, error)
	UpdateBoard(ctx context.Context, userID types.UserID, changes BoardChanges, index *int) error
	DeleteBoard(ctx context.Context, userID types.UserID, boardID types.BoardID) error

	AddTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, task NewTask, index *int) (types.TaskID, error)
	UpdateTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, changes TaskChanges, index *int, oldColumnID *types.ColumnID) error
	DeleteTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, taskID types.TaskID) error

	// Close releases background resources (pollers, subscriptions).
	Close() error
}

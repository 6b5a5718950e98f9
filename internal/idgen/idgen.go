// Package idgen provides the id-allocation capability injected into the
// repositories. The exact id format is not part of any contract; only
// uniqueness within the process matters.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/thenoetrevino/kanso/internal/types"
)

// Generator allocates fresh ids for each entity kind.
type Generator interface {
	NewBoardID() types.BoardID
	NewColumnID() types.ColumnID
	NewTaskID() types.TaskID
}

// UUID is the production generator, backed by random UUIDs.
type UUID struct{}

// NewUUID creates a UUID-backed generator.
func NewUUID() *UUID { return &UUID{} }

func (UUID) NewBoardID() types.BoardID   { return types.BoardID(uuid.NewString()) }
func (UUID) NewColumnID() types.ColumnID { return types.ColumnID(uuid.NewString()) }
func (UUID) NewTaskID() types.TaskID     { return types.TaskID(uuid.NewString()) }

// Sequential produces deterministic "kind-N" ids for tests.
type Sequential struct {
	boards  atomic.Int64
	columns atomic.Int64
	tasks   atomic.Int64
}

// NewSequential creates a counter-backed generator starting at 1.
func NewSequential() *Sequential { return &Sequential{} }

func (s *Sequential) NewBoardID() types.BoardID {
	return types.BoardID(fmt.Sprintf("board-%d", s.boards.Add(1)))
}

func (s *Sequential) NewColumnID() types.ColumnID {
	return types.ColumnID(fmt.Sprintf("column-%d", s.columns.Add(1)))
}

func (s *Sequential) NewTaskID() types.TaskID {
	return types.TaskID(fmt.Sprintf("task-%d", s.tasks.Add(1)))
}

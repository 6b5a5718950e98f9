package docstore

import (
	"context"
	"sync"

	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/types"
)

// MemStore is the map-backed adapter implementation. It reproduces the push
// semantics of the real store: every committed batch fans one snapshot out to
// each subscription whose scope it touched. Used by demo mode and as the test
// double for the cache and the persistent repository.
type MemStore struct {
	mu     sync.Mutex
	boards map[types.BoardID]BoardDoc
	tasks  map[types.BoardID]map[types.TaskID]TaskDoc

	ids idgen.Generator
	hub *snapshotHub
}

// NewMemStore creates an empty in-memory store allocating ids from gen.
func NewMemStore(gen idgen.Generator) *MemStore {
	return &MemStore{
		boards: map[types.BoardID]BoardDoc{},
		tasks:  map[types.BoardID]map[types.TaskID]TaskDoc{},
		ids:    gen,
		hub:    newSnapshotHub(),
	}
}

func (s *MemStore) GetUserBoardDocs(_ context.Context, userID types.UserID) (map[types.BoardID]BoardDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userDocsLocked(userID), nil
}

func (s *MemStore) GetBoardDoc(_ context.Context, boardID types.BoardID) (BoardDoc, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.boards[boardID]
	if !ok {
		return BoardDoc{}, false, nil
	}
	return doc.Clone(), true, nil
}

func (s *MemStore) GetBoardTaskDocs(_ context.Context, boardID types.BoardID) (map[types.TaskID]TaskDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskDocsLocked(boardID), nil
}

func (s *MemStore) OnUserBoardDocsSnapshot(userID types.UserID, cb func(map[types.BoardID]BoardDoc)) func() {
	return s.hub.addUser(userID, cb)
}

func (s *MemStore) OnBoardDocSnapshot(boardID types.BoardID, cb func(BoardDoc, bool)) func() {
	return s.hub.addBoard(boardID, cb)
}

func (s *MemStore) OnBoardTaskDocsSnapshot(boardID types.BoardID, cb func(map[types.TaskID]TaskDoc)) func() {
	return s.hub.addTasks(boardID, cb)
}

func (s *MemStore) NewBoardID() types.BoardID   { return s.ids.NewBoardID() }
func (s *MemStore) NewColumnID() types.ColumnID { return s.ids.NewColumnID() }

func (s *MemStore) NewTaskID(types.BoardID) types.TaskID { return s.ids.NewTaskID() }

func (s *MemStore) StartBatch() Batch {
	return &memBatch{store: s}
}

type stagedOp struct {
	setBoard    *BoardDoc
	updateBoard map[string]any
	deleteBoard bool

	setTask    *TaskDoc
	updateTask map[string]any
	deleteTask bool

	boardID types.BoardID
	taskID  types.TaskID
}

type memBatch struct {
	store *MemStore
	ops   []stagedOp
}

func (b *memBatch) SetBoard(id types.BoardID, doc BoardDoc) {
	d := doc.Clone()
	b.ops = append(b.ops, stagedOp{boardID: id, setBoard: &d})
}

func (b *memBatch) UpdateBoard(id types.BoardID, fields map[string]any) {
	b.ops = append(b.ops, stagedOp{boardID: id, updateBoard: fields})
}

func (b *memBatch) DeleteBoard(id types.BoardID) {
	b.ops = append(b.ops, stagedOp{boardID: id, deleteBoard: true})
}

func (b *memBatch) SetTask(boardID types.BoardID, id types.TaskID, doc TaskDoc) {
	d := doc.Clone()
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, setTask: &d})
}

func (b *memBatch) UpdateTask(boardID types.BoardID, id types.TaskID, fields map[string]any) {
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, updateTask: fields})
}

func (b *memBatch) DeleteTask(boardID types.BoardID, id types.TaskID) {
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, deleteTask: true})
}

// Commit applies all staged operations atomically: everything is applied to a
// shadow copy first, so a bad field path leaves the store untouched.
func (b *memBatch) Commit(context.Context) error {
	s := b.store
	s.mu.Lock()

	shadowBoards := make(map[types.BoardID]BoardDoc, len(s.boards))
	for id, doc := range s.boards {
		shadowBoards[id] = doc.Clone()
	}
	shadowTasks := make(map[types.BoardID]map[types.TaskID]TaskDoc, len(s.tasks))
	for boardID, docs := range s.tasks {
		m := make(map[types.TaskID]TaskDoc, len(docs))
		for id, doc := range docs {
			m[id] = doc.Clone()
		}
		shadowTasks[boardID] = m
	}

	// Owners before and after the batch both get re-notified.
	owners := map[types.UserID]bool{}
	boardsTouched := map[types.BoardID]bool{}
	taskScopesTouched := map[types.BoardID]bool{}

	for _, op := range b.ops {
		if prev, ok := shadowBoards[op.boardID]; ok {
			owners[prev.Owner] = true
		}

		switch {
		case op.setBoard != nil:
			shadowBoards[op.boardID] = op.setBoard.Clone()
			boardsTouched[op.boardID] = true
		case op.updateBoard != nil:
			doc, ok := shadowBoards[op.boardID]
			if !ok {
				s.mu.Unlock()
				return errUnknownDoc("board", string(op.boardID))
			}
			if err := applyBoardFields(&doc, op.updateBoard); err != nil {
				s.mu.Unlock()
				return err
			}
			shadowBoards[op.boardID] = doc
			boardsTouched[op.boardID] = true
		case op.deleteBoard:
			delete(shadowBoards, op.boardID)
			boardsTouched[op.boardID] = true
		case op.setTask != nil:
			if shadowTasks[op.boardID] == nil {
				shadowTasks[op.boardID] = map[types.TaskID]TaskDoc{}
			}
			shadowTasks[op.boardID][op.taskID] = op.setTask.Clone()
			taskScopesTouched[op.boardID] = true
		case op.updateTask != nil:
			doc, ok := shadowTasks[op.boardID][op.taskID]
			if !ok {
				s.mu.Unlock()
				return errUnknownDoc("task", string(op.taskID))
			}
			if err := applyTaskFields(&doc, op.updateTask); err != nil {
				s.mu.Unlock()
				return err
			}
			shadowTasks[op.boardID][op.taskID] = doc
			taskScopesTouched[op.boardID] = true
		case op.deleteTask:
			delete(shadowTasks[op.boardID], op.taskID)
			taskScopesTouched[op.boardID] = true
		}

		if next, ok := shadowBoards[op.boardID]; ok {
			owners[next.Owner] = true
		}
	}

	s.boards = shadowBoards
	s.tasks = shadowTasks
	s.mu.Unlock()

	for owner := range owners {
		s.notifyUser(owner)
	}
	for boardID := range boardsTouched {
		s.notifyBoard(boardID)
	}
	for boardID := range taskScopesTouched {
		s.notifyTasks(boardID)
	}
	return nil
}

func (s *MemStore) notifyUser(userID types.UserID) {
	s.mu.Lock()
	docs := s.userDocsLocked(userID)
	s.mu.Unlock()

	for _, cb := range s.hub.userCallbacks(userID) {
		cb(docs)
	}
}

func (s *MemStore) notifyBoard(boardID types.BoardID) {
	s.mu.Lock()
	doc, exists := s.boards[boardID]
	if exists {
		doc = doc.Clone()
	}
	s.mu.Unlock()

	for _, cb := range s.hub.boardCallbacks(boardID) {
		cb(doc, exists)
	}
}

func (s *MemStore) notifyTasks(boardID types.BoardID) {
	s.mu.Lock()
	docs := s.taskDocsLocked(boardID)
	s.mu.Unlock()

	for _, cb := range s.hub.taskCallbacks(boardID) {
		cb(docs)
	}
}

func (s *MemStore) userDocsLocked(userID types.UserID) map[types.BoardID]BoardDoc {
	out := map[types.BoardID]BoardDoc{}
	for id, doc := range s.boards {
		if doc.Owner == userID {
			out[id] = doc.Clone()
		}
	}
	return out
}

func (s *MemStore) taskDocsLocked(boardID types.BoardID) map[types.TaskID]TaskDoc {
	out := map[types.TaskID]TaskDoc{}
	for id, doc := range s.tasks[boardID] {
		out[id] = doc.Clone()
	}
	return out
}

var _ Store = (*MemStore)(nil)

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/thenoetrevino/kanso/internal/clock"
	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

type boardKey struct {
	user  types.UserID
	board types.BoardID
}

// Memory is the in-memory reference repository. It owns ordered slices
// directly and implements every mutation with list-splice semantics, serving
// as the intended-behavior twin of the document-store variant. Besides the
// per-mutation fan-out it notifies listeners on a periodic poll tick, which
// models the eventual-consistency push of the real store without a live
// channel.
type Memory struct {
	mu     sync.Mutex
	boards map[types.UserID][]*models.Board

	ids idgen.Generator

	nextToken      int
	listListeners  map[types.UserID]map[int]func([]*models.BoardSummary)
	boardListeners map[boardKey]map[int]func(*models.Board)

	ticker clock.Ticker
	done   chan struct{}
	closed sync.Once
}

// NewMemory creates an empty in-memory repository. When pollInterval > 0 a
// poller re-notifies every listener each tick; pass a Manual clock in tests
// to drive ticks deterministically.
func NewMemory(ids idgen.Generator, clk clock.Clock, pollInterval time.Duration) *Memory {
	m := &Memory{
		boards:         map[types.UserID][]*models.Board{},
		ids:            ids,
		listListeners:  map[types.UserID]map[int]func([]*models.BoardSummary){},
		boardListeners: map[boardKey]map[int]func(*models.Board){},
		done:           make(chan struct{}),
	}
	if pollInterval > 0 && clk != nil {
		m.ticker = clk.NewTicker(pollInterval)
		go m.poll()
	}
	return m
}

func (m *Memory) poll() {
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C():
			m.notifyAll()
		}
	}
}

// Close stops the poll goroutine. Safe to call more than once.
func (m *Memory) Close() error {
	m.closed.Do(func() {
		close(m.done)
		if m.ticker != nil {
			m.ticker.Stop()
		}
	})
	return nil
}

// GetBoardList returns the current {id, name} snapshot in list order. It
// never fails; an unknown user simply has zero boards.
func (m *Memory) GetBoardList(_ context.Context, userID types.UserID) ([]*models.BoardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summariesLocked(userID), nil
}

// GetBoard returns a deep copy of the board, or ErrNotFound.
func (m *Memory) GetBoard(_ context.Context, userID types.UserID, boardID types.BoardID) (*models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.findBoardLocked(userID, boardID)
	if b == nil {
		return nil, models.ErrNotFound
	}
	return b.Clone(), nil
}

// ListenToBoardListChange registers a callback for board-list mutations of
// this user. The returned unsubscribe removes exactly this registration and
// is safe to call repeatedly.
func (m *Memory) ListenToBoardListChange(userID types.UserID, cb func([]*models.BoardSummary)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.nextToken
	m.nextToken++
	if m.listListeners[userID] == nil {
		m.listListeners[userID] = map[int]func([]*models.BoardSummary){}
	}
	m.listListeners[userID][token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listListeners[userID], token)
			m.mu.Unlock()
		})
	}, nil
}

// ListenToBoardChange registers a callback for mutations of one board.
func (m *Memory) ListenToBoardChange(userID types.UserID, boardID types.BoardID, cb func(*models.Board)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := boardKey{user: userID, board: boardID}
	token := m.nextToken
	m.nextToken++
	if m.boardListeners[key] == nil {
		m.boardListeners[key] = map[int]func(*models.Board){}
	}
	m.boardListeners[key][token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.boardListeners[key], token)
			m.mu.Unlock()
		})
	}, nil
}

// AddBoard creates a board with fresh ids for itself and its initial columns,
// splices it into the user's list at index (append when nil or out of range),
// and notifies board-list listeners.
func (m *Memory) AddBoard(_ context.Context, userID types.UserID, board NewBoard, index *int) (types.BoardID, error) {
	m.mu.Lock()

	b := &models.Board{
		ID:      m.ids.NewBoardID(),
		Name:    board.Name,
		Columns: make([]*models.Column, 0, len(board.Columns)),
	}
	for _, col := range board.Columns {
		b.Columns = append(b.Columns, &models.Column{
			ID:    m.ids.NewColumnID(),
			Name:  col.Name,
			Tasks: []*models.Task{},
		})
	}

	list := m.boards[userID]
	slot := spliceSlot(len(list), index)
	list = append(list, nil)
	copy(list[slot+1:], list[slot:])
	list[slot] = b
	m.boards[userID] = list

	id := b.ID
	m.mu.Unlock()

	m.notifyList(userID)
	return id, nil
}

// UpdateBoard applies name, column, and position changes. ColumnsKept, when
// present, fully determines the final column order; surviving columns keep
// their tasks. Referencing an unknown board or column fails with ErrNotFound
// before anything is modified.
func (m *Memory) UpdateBoard(_ context.Context, userID types.UserID, changes BoardChanges, index *int) error {
	m.mu.Lock()

	b := m.findBoardLocked(userID, changes.ID)
	if b == nil {
		m.mu.Unlock()
		return models.ErrNotFound
	}

	byID := make(map[types.ColumnID]*models.Column, len(b.Columns))
	for _, col := range b.Columns {
		byID[col.ID] = col
	}

	// Validate every referenced column before mutating anything.
	for _, id := range changes.ColumnsDeleted {
		if _, ok := byID[id]; !ok {
			m.mu.Unlock()
			return models.ErrNotFound
		}
	}
	for _, kept := range changes.ColumnsKept {
		if !kept.IsAdded {
			if _, ok := byID[kept.ID]; !ok {
				m.mu.Unlock()
				return models.ErrNotFound
			}
		}
	}

	if changes.Name != nil {
		b.Name = *changes.Name
	}

	deleted := make(map[types.ColumnID]bool, len(changes.ColumnsDeleted))
	for _, id := range changes.ColumnsDeleted {
		deleted[id] = true
	}

	switch {
	case changes.ColumnsKept != nil:
		cols := make([]*models.Column, 0, len(changes.ColumnsKept))
		for _, kept := range changes.ColumnsKept {
			if deleted[kept.ID] {
				continue
			}
			if kept.IsAdded {
				cols = append(cols, &models.Column{
					ID:    m.ids.NewColumnID(),
					Name:  kept.Name,
					Tasks: []*models.Task{},
				})
				continue
			}
			col := byID[kept.ID]
			col.Name = kept.Name
			for _, t := range col.Tasks {
				t.Status.Name = kept.Name
			}
			cols = append(cols, col)
		}
		b.Columns = cols
	case len(changes.ColumnsDeleted) > 0:
		cols := b.Columns[:0]
		for _, col := range b.Columns {
			if !deleted[col.ID] {
				cols = append(cols, col)
			}
		}
		b.Columns = cols
	}

	if index != nil {
		m.moveBoardLocked(userID, b.ID, *index)
	}

	boardID := b.ID
	m.mu.Unlock()

	m.notifyList(userID)
	m.notifyBoard(userID, boardID)
	return nil
}

// DeleteBoard removes the board and everything it owns. A missing id is a
// silent no-op, unlike the throwing reads and updates.
func (m *Memory) DeleteBoard(_ context.Context, userID types.UserID, boardID types.BoardID) error {
	m.mu.Lock()
	list := m.boards[userID]
	found := false
	for i, b := range list {
		if b.ID == boardID {
			m.boards[userID] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if found {
		m.notifyList(userID)
	}
	return nil
}

// AddTask creates a task in the given column and splices it in at index.
func (m *Memory) AddTask(_ context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, task NewTask, index *int) (types.TaskID, error) {
	m.mu.Lock()

	b := m.findBoardLocked(userID, boardID)
	if b == nil {
		m.mu.Unlock()
		return "", models.ErrNotFound
	}
	col := findColumn(b, columnID)
	if col == nil {
		m.mu.Unlock()
		return "", models.ErrNotFound
	}

	t := &models.Task{
		ID:          m.ids.NewTaskID(),
		Title:       task.Title,
		Description: task.Description,
		Subtasks:    append([]models.Subtask(nil), task.Subtasks...),
		Status:      models.ColumnRef{ID: col.ID, Name: col.Name},
	}

	slot := spliceSlot(len(col.Tasks), index)
	col.Tasks = append(col.Tasks, nil)
	copy(col.Tasks[slot+1:], col.Tasks[slot:])
	col.Tasks[slot] = t

	id := t.ID
	m.mu.Unlock()

	m.notifyBoard(userID, boardID)
	return id, nil
}

// UpdateTask applies content changes and, when oldColumnID is set, moves the
// task from that column into columnID at index. Without oldColumnID a non-nil
// index reorders the task within its column.
func (m *Memory) UpdateTask(_ context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, changes TaskChanges, index *int, oldColumnID *types.ColumnID) error {
	m.mu.Lock()

	b := m.findBoardLocked(userID, boardID)
	if b == nil {
		m.mu.Unlock()
		return models.ErrNotFound
	}

	target := findColumn(b, columnID)
	if target == nil {
		m.mu.Unlock()
		return models.ErrNotFound
	}

	source := target
	if oldColumnID != nil {
		source = findColumn(b, *oldColumnID)
		if source == nil {
			m.mu.Unlock()
			return models.ErrNotFound
		}
	}

	at := -1
	for i, t := range source.Tasks {
		if t.ID == changes.ID {
			at = i
			break
		}
	}
	if at == -1 {
		m.mu.Unlock()
		return models.ErrNotFound
	}
	t := source.Tasks[at]

	if changes.Title != nil {
		t.Title = *changes.Title
	}
	if changes.Description != nil {
		t.Description = *changes.Description
	}
	if changes.Subtasks != nil {
		t.Subtasks = append([]models.Subtask(nil), changes.Subtasks...)
	}

	if source != target {
		source.Tasks = append(source.Tasks[:at], source.Tasks[at+1:]...)
		t.Status = models.ColumnRef{ID: target.ID, Name: target.Name}
		slot := spliceSlot(len(target.Tasks), index)
		target.Tasks = append(target.Tasks, nil)
		copy(target.Tasks[slot+1:], target.Tasks[slot:])
		target.Tasks[slot] = t
	} else if index != nil {
		target.Tasks = append(target.Tasks[:at], target.Tasks[at+1:]...)
		slot := spliceSlot(len(target.Tasks), index)
		target.Tasks = append(target.Tasks, nil)
		copy(target.Tasks[slot+1:], target.Tasks[slot:])
		target.Tasks[slot] = t
	}

	m.mu.Unlock()

	m.notifyBoard(userID, boardID)
	return nil
}

// DeleteTask removes the task from its column. A missing id is a silent
// no-op, mirroring DeleteBoard.
func (m *Memory) DeleteTask(_ context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, taskID types.TaskID) error {
	m.mu.Lock()

	found := false
	if b := m.findBoardLocked(userID, boardID); b != nil {
		if col := findColumn(b, columnID); col != nil {
			for i, t := range col.Tasks {
				if t.ID == taskID {
					col.Tasks = append(col.Tasks[:i], col.Tasks[i+1:]...)
					found = true
					break
				}
			}
		}
	}
	m.mu.Unlock()

	if found {
		m.notifyBoard(userID, boardID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// internals

func (m *Memory) findBoardLocked(userID types.UserID, boardID types.BoardID) *models.Board {
	for _, b := range m.boards[userID] {
		if b.ID == boardID {
			return b
		}
	}
	return nil
}

func findColumn(b *models.Board, columnID types.ColumnID) *models.Column {
	for _, col := range b.Columns {
		if col.ID == columnID {
			return col
		}
	}
	return nil
}

func (m *Memory) summariesLocked(userID types.UserID) []*models.BoardSummary {
	list := m.boards[userID]
	out := make([]*models.BoardSummary, 0, len(list))
	for _, b := range list {
		out = append(out, &models.BoardSummary{ID: b.ID, Name: b.Name})
	}
	return out
}

func (m *Memory) moveBoardLocked(userID types.UserID, boardID types.BoardID, index int) {
	list := m.boards[userID]
	at := -1
	for i, b := range list {
		if b.ID == boardID {
			at = i
			break
		}
	}
	if at == -1 {
		return
	}
	b := list[at]
	list = append(list[:at], list[at+1:]...)
	slot := index
	if slot < 0 || slot > len(list) {
		slot = len(list)
	}
	list = append(list, nil)
	copy(list[slot+1:], list[slot:])
	list[slot] = b
	m.boards[userID] = list
}

// spliceSlot clamps an optional desired index into a valid insertion slot for
// a list of length n. Nil, negative, and past-the-end all append.
func spliceSlot(n int, index *int) int {
	if index == nil || *index < 0 || *index > n {
		return n
	}
	return *index
}

func (m *Memory) notifyList(userID types.UserID) {
	m.mu.Lock()
	summaries := m.summariesLocked(userID)
	cbs := make([]func([]*models.BoardSummary), 0, len(m.listListeners[userID]))
	for _, cb := range m.listListeners[userID] {
		cbs = append(cbs, cb)
	}
	m.mu.Unlock()

	for _, cb := range cbs {
		cb(summaries)
	}
}

func (m *Memory) notifyBoard(userID types.UserID, boardID types.BoardID) {
	m.mu.Lock()
	var snapshot *models.Board
	if b := m.findBoardLocked(userID, boardID); b != nil {
		snapshot = b.Clone()
	}
	key := boardKey{user: userID, board: boardID}
	cbs := make([]func(*models.Board), 0, len(m.boardListeners[key]))
	for _, cb := range m.boardListeners[key] {
		cbs = append(cbs, cb)
	}
	m.mu.Unlock()

	for _, cb := range cbs {
		cb(snapshot)
	}
}

func (m *Memory) notifyAll() {
	m.mu.Lock()
	users := make([]types.UserID, 0, len(m.listListeners))
	for u := range m.listListeners {
		users = append(users, u)
	}
	keys := make([]boardKey, 0, len(m.boardListeners))
	for k := range m.boardListeners {
		keys = append(keys, k)
	}
	m.mu.Unlock()

	for _, u := range users {
		m.notifyList(u)
	}
	for _, k := range keys {
		m.notifyBoard(k.user, k.board)
	}
}

var _ BoardRepository = (*Memory)(nil)

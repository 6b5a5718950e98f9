// Package subcache memoizes per-user and per-board state on top of the
// document-store push channel. A board arrives as two independent snapshot
// streams, the base document (names and order) and the task documents
// (content); the cache merges them into one coherent entity and fans each
// change out to any number of listeners over a single underlying store
// subscription per key.
package subcache

import (
	"context"
	"sort"
	"sync"

	"github.com/thenoetrevino/kanso/internal/converters"
	"github.com/thenoetrevino/kanso/internal/docstore"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

type boardKey struct {
	user  types.UserID
	board types.BoardID
}

type listEntry struct {
	initialized bool
	value       []*models.BoardSummary

	nextToken int
	callbacks map[int]func([]*models.BoardSummary)
	unsub     func()
}

type boardEntry struct {
	// baseLoaded gates visibility: until a base snapshot (or one-shot read)
	// arrives there is no board to show, even if task content is buffered.
	baseLoaded  bool
	tasksLoaded bool
	exists      bool

	name    string
	columns []*models.Column // structure only; tasks attached at build time

	// tasksByColumn survives structure-only updates: content is layered onto
	// structure, never discarded by a base event.
	tasksByColumn map[types.ColumnID][]*models.Task

	nextToken int
	callbacks map[int]func(*models.Board)

	unsubBase  func()
	unsubTasks func()
}

// Cache is the process-wide subscription cache. Construct one at application
// start; tests construct a fresh one (or call Reset) per case.
type Cache struct {
	store docstore.Store

	mu     sync.Mutex
	lists  map[types.UserID]*listEntry
	boards map[boardKey]*boardEntry
}

// New creates an empty cache over the given adapter.
func New(store docstore.Store) *Cache {
	return &Cache{
		store:  store,
		lists:  map[types.UserID]*listEntry{},
		boards: map[boardKey]*boardEntry{},
	}
}

// BoardList returns the user's ordered board summaries: synchronously from
// the cached value when warm, seeding the cache with a one-shot read when
// cold. Establishing the entry opens the underlying push subscription.
func (c *Cache) BoardList(ctx context.Context, userID types.UserID) ([]*models.BoardSummary, error) {
	c.mu.Lock()
	entry := c.ensureListLocked(userID)
	if entry.initialized {
		value := cloneSummaries(entry.value)
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	docs, err := c.store.GetUserBoardDocs(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// A push may have initialized the entry while the read was in flight;
	// the push is newer, keep it.
	if !entry.initialized {
		entry.initialized = true
		entry.value = converters.SummariesFromDocs(docs)
	}
	value := cloneSummaries(entry.value)
	c.mu.Unlock()
	return value, nil
}

// Board returns the merged board entity for the key, or exists=false when
// the board document is absent. Cold entries are seeded with one-shot reads
// of both the base document and the task collection.
func (c *Cache) Board(ctx context.Context, userID types.UserID, boardID types.BoardID) (*models.Board, bool, error) {
	key := boardKey{user: userID, board: boardID}

	c.mu.Lock()
	entry := c.ensureBoardLocked(key)
	if entry.baseLoaded && entry.tasksLoaded {
		board := buildBoard(boardID, entry)
		c.mu.Unlock()
		return board, board != nil, nil
	}
	c.mu.Unlock()

	if !entry.tasksLoaded {
		taskDocs, err := c.store.GetBoardTaskDocs(ctx, boardID)
		if err != nil {
			return nil, false, err
		}
		c.mu.Lock()
		if !entry.tasksLoaded {
			entry.tasksLoaded = true
			entry.tasksByColumn = converters.TasksByColumn(taskDocs)
		}
		c.mu.Unlock()
	}

	if !entry.baseLoaded {
		doc, exists, err := c.store.GetBoardDoc(ctx, boardID)
		if err != nil {
			return nil, false, err
		}
		c.mu.Lock()
		if !entry.baseLoaded {
			entry.baseLoaded = true
			entry.exists = exists
			if exists {
				entry.name = doc.Name
				entry.columns = converters.ColumnsFromDoc(doc)
			}
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	board := buildBoard(boardID, entry)
	c.mu.Unlock()
	return board, board != nil, nil
}

// AddBoardListCallback registers a listener for the user's board list. The
// unsubscribe removes exactly this registration; calling it twice is a no-op
// and never disturbs other listeners.
func (c *Cache) AddBoardListCallback(userID types.UserID, cb func([]*models.BoardSummary)) func() {
	c.mu.Lock()
	entry := c.ensureListLocked(userID)
	token := entry.nextToken
	entry.nextToken++
	entry.callbacks[token] = cb
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(entry.callbacks, token)
			c.mu.Unlock()
		})
	}
}

// AddBoardCallback registers a listener for one board's merged entity.
func (c *Cache) AddBoardCallback(userID types.UserID, boardID types.BoardID, cb func(*models.Board)) func() {
	key := boardKey{user: userID, board: boardID}

	c.mu.Lock()
	entry := c.ensureBoardLocked(key)
	token := entry.nextToken
	entry.nextToken++
	entry.callbacks[token] = cb
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(entry.callbacks, token)
			c.mu.Unlock()
		})
	}
}

// Reset tears down every subscription and drops all cached state. Tests call
// this between cases; production code never needs to.
func (c *Cache) Reset() {
	c.mu.Lock()
	var unsubs []func()
	for _, entry := range c.lists {
		if entry.unsub != nil {
			unsubs = append(unsubs, entry.unsub)
		}
	}
	for _, entry := range c.boards {
		if entry.unsubBase != nil {
			unsubs = append(unsubs, entry.unsubBase)
		}
		if entry.unsubTasks != nil {
			unsubs = append(unsubs, entry.unsubTasks)
		}
	}
	c.lists = map[types.UserID]*listEntry{}
	c.boards = map[boardKey]*boardEntry{}
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// ---------------------------------------------------------------------------
// internals

// ensureListLocked returns the user's entry, opening the underlying push
// subscription exactly once per cache lifetime. Re-entry after a Reset opens
// a fresh one; the live-handle check keeps re-subscription idempotent.
func (c *Cache) ensureListLocked(userID types.UserID) *listEntry {
	entry := c.lists[userID]
	if entry == nil {
		entry = &listEntry{callbacks: map[int]func([]*models.BoardSummary){}}
		c.lists[userID] = entry
	}
	if entry.unsub == nil {
		entry.unsub = c.store.OnUserBoardDocsSnapshot(userID, func(docs map[types.BoardID]docstore.BoardDoc) {
			c.onListSnapshot(userID, docs)
		})
	}
	return entry
}

func (c *Cache) ensureBoardLocked(key boardKey) *boardEntry {
	entry := c.boards[key]
	if entry == nil {
		entry = &boardEntry{
			tasksByColumn: map[types.ColumnID][]*models.Task{},
			callbacks:     map[int]func(*models.Board){},
		}
		c.boards[key] = entry
	}
	if entry.unsubBase == nil {
		entry.unsubBase = c.store.OnBoardDocSnapshot(key.board, func(doc docstore.BoardDoc, exists bool) {
			c.onBaseSnapshot(key, doc, exists)
		})
	}
	if entry.unsubTasks == nil {
		entry.unsubTasks = c.store.OnBoardTaskDocsSnapshot(key.board, func(docs map[types.TaskID]docstore.TaskDoc) {
			c.onTasksSnapshot(key, docs)
		})
	}
	return entry
}

func (c *Cache) onListSnapshot(userID types.UserID, docs map[types.BoardID]docstore.BoardDoc) {
	c.mu.Lock()
	entry := c.lists[userID]
	if entry == nil {
		c.mu.Unlock()
		return
	}
	entry.initialized = true
	entry.value = converters.SummariesFromDocs(docs)
	value := cloneSummaries(entry.value)
	cbs := orderedListCallbacks(entry)
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(value)
	}
}

// onBaseSnapshot applies a structure event. Task content of surviving
// columns is carried forward, never reset by a structure-only update.
func (c *Cache) onBaseSnapshot(key boardKey, doc docstore.BoardDoc, exists bool) {
	c.mu.Lock()
	entry := c.boards[key]
	if entry == nil {
		c.mu.Unlock()
		return
	}
	entry.baseLoaded = true
	entry.exists = exists
	if exists {
		entry.name = doc.Name
		entry.columns = converters.ColumnsFromDoc(doc)
	} else {
		entry.name = ""
		entry.columns = nil
	}
	board := buildBoard(key.board, entry)
	cbs := orderedBoardCallbacks(entry)
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(board)
	}
}

// onTasksSnapshot applies a content event. The snapshot carries the board's
// whole task collection, so the per-column buffer is rebuilt from it. When
// no base has arrived yet the content stays buffered and the visible entity
// remains absent.
func (c *Cache) onTasksSnapshot(key boardKey, docs map[types.TaskID]docstore.TaskDoc) {
	c.mu.Lock()
	entry := c.boards[key]
	if entry == nil {
		c.mu.Unlock()
		return
	}
	entry.tasksLoaded = true
	entry.tasksByColumn = converters.TasksByColumn(docs)
	board := buildBoard(key.board, entry)
	cbs := orderedBoardCallbacks(entry)
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(board)
	}
}

// buildBoard assembles the visible entity: nil until a base snapshot exists,
// otherwise structure with the buffered task content attached per column.
func buildBoard(boardID types.BoardID, entry *boardEntry) *models.Board {
	if !entry.baseLoaded || !entry.exists {
		return nil
	}
	board := &models.Board{ID: boardID, Name: entry.name}
	board.Columns = make([]*models.Column, len(entry.columns))
	for i, col := range entry.columns {
		out := &models.Column{ID: col.ID, Name: col.Name, Tasks: []*models.Task{}}
		if tasks, ok := entry.tasksByColumn[col.ID]; ok {
			out.Tasks = make([]*models.Task, len(tasks))
			for j, t := range tasks {
				out.Tasks[j] = t.Clone()
			}
		}
		board.Columns[i] = out
	}
	return board
}

// Callbacks fire synchronously in registration order, one round per event.
func orderedListCallbacks(entry *listEntry) []func([]*models.BoardSummary) {
	tokens := make([]int, 0, len(entry.callbacks))
	for t := range entry.callbacks {
		tokens = append(tokens, t)
	}
	sort.Ints(tokens)
	out := make([]func([]*models.BoardSummary), 0, len(tokens))
	for _, t := range tokens {
		out = append(out, entry.callbacks[t])
	}
	return out
}

func orderedBoardCallbacks(entry *boardEntry) []func(*models.Board) {
	tokens := make([]int, 0, len(entry.callbacks))
	for t := range entry.callbacks {
		tokens = append(tokens, t)
	}
	sort.Ints(tokens)
	out := make([]func(*models.Board), 0, len(tokens))
	for _, t := range tokens {
		out = append(out, entry.callbacks[t])
	}
	return out
}

func cloneSummaries(in []*models.BoardSummary) []*models.BoardSummary {
	out := make([]*models.BoardSummary, len(in))
	for i, s := range in {
		dup := *s
		out[i] = &dup
	}
	return out
}

package docstore

import (
	"fmt"
	"sync"

	"github.com/thenoetrevino/kanso/internal/types"
)

func errUnknownDoc(kind, id string) error {
	return fmt.Errorf("%s document %s does not exist", kind, id)
}

// snapshotHub holds the push subscriptions of an adapter. Both adapter
// implementations register and fan out through it, so unsubscribe semantics
// cannot drift between them.
type snapshotHub struct {
	mu        sync.Mutex
	nextToken int

	user  map[types.UserID]map[int]func(map[types.BoardID]BoardDoc)
	board map[types.BoardID]map[int]func(BoardDoc, bool)
	tasks map[types.BoardID]map[int]func(map[types.TaskID]TaskDoc)
}

func newSnapshotHub() *snapshotHub {
	return &snapshotHub{
		user:  map[types.UserID]map[int]func(map[types.BoardID]BoardDoc){},
		board: map[types.BoardID]map[int]func(BoardDoc, bool){},
		tasks: map[types.BoardID]map[int]func(map[types.TaskID]TaskDoc){},
	}
}

func (h *snapshotHub) addUser(userID types.UserID, cb func(map[types.BoardID]BoardDoc)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.nextToken
	h.nextToken++
	if h.user[userID] == nil {
		h.user[userID] = map[int]func(map[types.BoardID]BoardDoc){}
	}
	h.user[userID][token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.user[userID], token)
			h.mu.Unlock()
		})
	}
}

func (h *snapshotHub) addBoard(boardID types.BoardID, cb func(BoardDoc, bool)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.nextToken
	h.nextToken++
	if h.board[boardID] == nil {
		h.board[boardID] = map[int]func(BoardDoc, bool){}
	}
	h.board[boardID][token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.board[boardID], token)
			h.mu.Unlock()
		})
	}
}

func (h *snapshotHub) addTasks(boardID types.BoardID, cb func(map[types.TaskID]TaskDoc)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.nextToken
	h.nextToken++
	if h.tasks[boardID] == nil {
		h.tasks[boardID] = map[int]func(map[types.TaskID]TaskDoc){}
	}
	h.tasks[boardID][token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.tasks[boardID], token)
			h.mu.Unlock()
		})
	}
}

func (h *snapshotHub) userCallbacks(userID types.UserID) []func(map[types.BoardID]BoardDoc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(map[types.BoardID]BoardDoc), 0, len(h.user[userID]))
	for _, cb := range h.user[userID] {
		out = append(out, cb)
	}
	return out
}

func (h *snapshotHub) boardCallbacks(boardID types.BoardID) []func(BoardDoc, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(BoardDoc, bool), 0, len(h.board[boardID]))
	for _, cb := range h.board[boardID] {
		out = append(out, cb)
	}
	return out
}

func (h *snapshotHub) taskCallbacks(boardID types.BoardID) []func(map[types.TaskID]TaskDoc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(map[types.TaskID]TaskDoc), 0, len(h.tasks[boardID]))
	for _, cb := range h.tasks[boardID] {
		out = append(out, cb)
	}
	return out
}

package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/thenoetrevino/kanso/internal/converters"
	"github.com/thenoetrevino/kanso/internal/docstore"
	"github.com/thenoetrevino/kanso/internal/listcodec"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/subcache"
	"github.com/thenoetrevino/kanso/internal/types"
)

// Document is the persistent repository over a document-store adapter. Order
// is encoded as linked lists on the stored records; every mutation computes
// its pointer patches against the current cached snapshot and commits them in
// one atomic batch, so a move or insert touches O(1) documents no matter how
// long the list is.
//
// Reads and position resolution go through the subscription cache. A cold
// cache seeds itself with one-shot reads, so mutations do not require a prior
// read in the same session.
type Document struct {
	store docstore.Store
	cache *subcache.Cache
}

// NewDocument creates a repository over the given adapter with its own
// subscription cache.
func NewDocument(store docstore.Store) *Document {
	return &Document{store: store, cache: subcache.New(store)}
}

// Close drops all cache subscriptions and closes the adapter if it holds
// resources.
func (d *Document) Close() error {
	d.cache.Reset()
	if closer, ok := d.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (d *Document) GetBoardList(ctx context.Context, userID types.UserID) ([]*models.BoardSummary, error) {
	list, err := d.cache.BoardList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board list: %w", err)
	}
	return list, nil
}

func (d *Document) GetBoard(ctx context.Context, userID types.UserID, boardID types.BoardID) (*models.Board, error) {
	board, exists, err := d.cache.Board(ctx, userID, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("board %s: %w", boardID, models.ErrNotFound)
	}
	return board, nil
}

func (d *Document) ListenToBoardListChange(userID types.UserID, cb func([]*models.BoardSummary)) (func(), error) {
	return d.cache.AddBoardListCallback(userID, cb), nil
}

func (d *Document) ListenToBoardChange(userID types.UserID, boardID types.BoardID, cb func(*models.Board)) (func(), error) {
	return d.cache.AddBoardCallback(userID, boardID, cb), nil
}

// AddBoard writes the new board document and, when the board lands anywhere
// but the head, the predecessor's pointer patch in the same batch.
func (d *Document) AddBoard(ctx context.Context, userID types.UserID, board NewBoard, index *int) (types.BoardID, error) {
	ids, err := d.boardIDs(ctx, userID)
	if err != nil {
		return "", err
	}

	boardID := d.store.NewBoardID()
	columns := make([]*models.Column, len(board.Columns))
	for i, col := range board.Columns {
		columns[i] = &models.Column{ID: d.store.NewColumnID(), Name: col.Name}
	}

	pos := listcodec.ResolvePosition(ids, boardID, spliceSlot(len(ids), index))
	doc := docstore.BoardDoc{
		Owner:   userID,
		Name:    board.Name,
		Columns: converters.ColumnsToDocEntries(columns),
		NextID:  pos.NextID,
	}

	batch := d.store.StartBatch()
	batch.SetBoard(boardID, doc)
	if pos.PrevID != nil {
		batch.UpdateBoard(*pos.PrevID, map[string]any{"nextId": boardID})
	}
	if err := batch.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to add board: %w", err)
	}
	return boardID, nil
}

// UpdateBoard applies name, column, and position changes in one batch. Column
// replacement is written wholesale as the new pointer map; renames fan out to
// the denormalized status name on every task of the renamed column, and
// removed columns take their tasks with them.
func (d *Document) UpdateBoard(ctx context.Context, userID types.UserID, changes BoardChanges, index *int) error {
	board, exists, err := d.cache.Board(ctx, userID, changes.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve board: %w", err)
	}
	if !exists {
		return fmt.Errorf("board %s: %w", changes.ID, models.ErrNotFound)
	}

	byID := make(map[types.ColumnID]*models.Column, len(board.Columns))
	for _, col := range board.Columns {
		byID[col.ID] = col
	}
	for _, id := range changes.ColumnsDeleted {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("column %s: %w", id, models.ErrNotFound)
		}
	}
	for _, kept := range changes.ColumnsKept {
		if !kept.IsAdded {
			if _, ok := byID[kept.ID]; !ok {
				return fmt.Errorf("column %s: %w", kept.ID, models.ErrNotFound)
			}
		}
	}

	deleted := make(map[types.ColumnID]bool, len(changes.ColumnsDeleted))
	for _, id := range changes.ColumnsDeleted {
		deleted[id] = true
	}

	fields := map[string]any{}
	if changes.Name != nil {
		fields["name"] = *changes.Name
	}

	var removed []types.ColumnID
	renamed := map[types.ColumnID]string{}

	switch {
	case changes.ColumnsKept != nil:
		final := make([]*models.Column, 0, len(changes.ColumnsKept))
		surviving := map[types.ColumnID]bool{}
		for _, kept := range changes.ColumnsKept {
			if deleted[kept.ID] {
				continue
			}
			if kept.IsAdded {
				final = append(final, &models.Column{ID: d.store.NewColumnID(), Name: kept.Name})
				continue
			}
			surviving[kept.ID] = true
			if byID[kept.ID].Name != kept.Name {
				renamed[kept.ID] = kept.Name
			}
			final = append(final, &models.Column{ID: kept.ID, Name: kept.Name})
		}
		for _, col := range board.Columns {
			if !surviving[col.ID] {
				removed = append(removed, col.ID)
			}
		}
		fields["columns"] = converters.ColumnsToDocEntries(final)
	case len(changes.ColumnsDeleted) > 0:
		final := make([]*models.Column, 0, len(board.Columns))
		for _, col := range board.Columns {
			if !deleted[col.ID] {
				final = append(final, &models.Column{ID: col.ID, Name: col.Name})
			}
		}
		removed = changes.ColumnsDeleted
		fields["columns"] = converters.ColumnsToDocEntries(final)
	}

	batch := d.store.StartBatch()

	if index != nil {
		ids, err := d.boardIDs(ctx, userID)
		if err != nil {
			return err
		}
		at := indexOfBoard(ids, changes.ID)
		if at > 0 {
			var oldNext *types.BoardID
			if at+1 < len(ids) {
				oldNext = &ids[at+1]
			}
			batch.UpdateBoard(ids[at-1], map[string]any{"nextId": oldNext})
		}
		pos := listcodec.ResolvePosition(ids, changes.ID, *index)
		fields["nextId"] = pos.NextID
		batch.UpdateBoard(changes.ID, fields)
		if pos.PrevID != nil {
			batch.UpdateBoard(*pos.PrevID, map[string]any{"nextId": changes.ID})
		}
	} else if len(fields) > 0 {
		batch.UpdateBoard(changes.ID, fields)
	}

	for colID, name := range renamed {
		for _, task := range byID[colID].Tasks {
			batch.UpdateTask(changes.ID, task.ID, map[string]any{"status.name": name})
		}
	}
	for _, colID := range removed {
		for _, task := range byID[colID].Tasks {
			batch.DeleteTask(changes.ID, task.ID)
		}
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	return nil
}

// DeleteBoard removes the board document, its tasks, and the predecessor's
// pointer in one batch. A missing id is a silent no-op.
func (d *Document) DeleteBoard(ctx context.Context, userID types.UserID, boardID types.BoardID) error {
	ids, err := d.boardIDs(ctx, userID)
	if err != nil {
		return err
	}
	at := indexOfBoard(ids, boardID)
	if at == -1 {
		return nil
	}

	board, exists, err := d.cache.Board(ctx, userID, boardID)
	if err != nil {
		return fmt.Errorf("failed to resolve board: %w", err)
	}

	batch := d.store.StartBatch()
	if at > 0 {
		var next *types.BoardID
		if at+1 < len(ids) {
			next = &ids[at+1]
		}
		batch.UpdateBoard(ids[at-1], map[string]any{"nextId": next})
	}
	batch.DeleteBoard(boardID)
	if exists {
		for _, col := range board.Columns {
			for _, task := range col.Tasks {
				batch.DeleteTask(boardID, task.ID)
			}
		}
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// AddTask writes the new task document with its denormalized status and the
// predecessor's pointer patch in one batch. The status copy requires the
// board document; an unresolvable board or column fails with ErrMissingData
// before any write is issued.
func (d *Document) AddTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, task NewTask, index *int) (types.TaskID, error) {
	board, exists, err := d.cache.Board(ctx, userID, boardID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve board: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("board %s: %w", boardID, models.ErrMissingData)
	}
	col := findColumn(board, columnID)
	if col == nil {
		return "", fmt.Errorf("column %s: %w", columnID, models.ErrMissingData)
	}

	taskID := d.store.NewTaskID(boardID)
	ids := taskIDs(col)
	pos := listcodec.ResolvePosition(ids, taskID, spliceSlot(len(ids), index))

	doc := converters.TaskToDoc(&models.Task{
		Title:       task.Title,
		Description: task.Description,
		Subtasks:    task.Subtasks,
		Status:      models.ColumnRef{ID: col.ID, Name: col.Name},
	}, pos.NextID)

	batch := d.store.StartBatch()
	batch.SetTask(boardID, taskID, doc)
	if pos.PrevID != nil {
		batch.UpdateTask(boardID, *pos.PrevID, map[string]any{"nextId": taskID})
	}
	if err := batch.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to add task: %w", err)
	}
	return taskID, nil
}

// UpdateTask applies content changes and position changes in one batch. A
// cross-column move patches the old predecessor, the task's own status and
// pointer, and the new predecessor together; applying fewer would leave a
// dangling or duplicated link.
func (d *Document) UpdateTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, changes TaskChanges, index *int, oldColumnID *types.ColumnID) error {
	board, exists, err := d.cache.Board(ctx, userID, boardID)
	if err != nil {
		return fmt.Errorf("failed to resolve board: %w", err)
	}
	if !exists {
		return fmt.Errorf("board %s: %w", boardID, models.ErrNotFound)
	}

	target := findColumn(board, columnID)
	if target == nil {
		return fmt.Errorf("column %s: %w", columnID, models.ErrNotFound)
	}
	source := target
	if oldColumnID != nil {
		source = findColumn(board, *oldColumnID)
		if source == nil {
			return fmt.Errorf("column %s: %w", *oldColumnID, models.ErrNotFound)
		}
	}

	sourceIDs := taskIDs(source)
	at := -1
	for i, id := range sourceIDs {
		if id == changes.ID {
			at = i
			break
		}
	}
	if at == -1 {
		return fmt.Errorf("task %s: %w", changes.ID, models.ErrNotFound)
	}

	fields := map[string]any{}
	if changes.Title != nil {
		fields["title"] = *changes.Title
	}
	if changes.Description != nil {
		fields["description"] = *changes.Description
	}
	if changes.Subtasks != nil {
		subtasks := make([]docstore.SubtaskEntry, len(changes.Subtasks))
		for i, s := range changes.Subtasks {
			subtasks[i] = docstore.SubtaskEntry{Title: s.Title, IsCompleted: s.IsCompleted}
		}
		fields["subtasks"] = subtasks
	}

	batch := d.store.StartBatch()
	var newPrev *types.TaskID

	switch {
	case source.ID != target.ID:
		if at > 0 {
			var oldNext *types.TaskID
			if at+1 < len(sourceIDs) {
				oldNext = &sourceIDs[at+1]
			}
			batch.UpdateTask(boardID, sourceIDs[at-1], map[string]any{"nextId": oldNext})
		}
		targetIDs := taskIDs(target)
		pos := listcodec.ResolvePosition(targetIDs, changes.ID, spliceSlot(len(targetIDs), index))
		fields["status"] = docstore.StatusEntry{ID: target.ID, Name: target.Name}
		fields["nextId"] = pos.NextID
		newPrev = pos.PrevID
	case index != nil:
		if at > 0 {
			var oldNext *types.TaskID
			if at+1 < len(sourceIDs) {
				oldNext = &sourceIDs[at+1]
			}
			batch.UpdateTask(boardID, sourceIDs[at-1], map[string]any{"nextId": oldNext})
		}
		pos := listcodec.ResolvePosition(sourceIDs, changes.ID, *index)
		fields["nextId"] = pos.NextID
		newPrev = pos.PrevID
	}

	if len(fields) > 0 {
		batch.UpdateTask(boardID, changes.ID, fields)
	}
	if newPrev != nil {
		batch.UpdateTask(boardID, *newPrev, map[string]any{"nextId": changes.ID})
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask removes the task document and bypasses it in its predecessor's
// pointer. A missing id is a silent no-op, mirroring DeleteBoard.
func (d *Document) DeleteTask(ctx context.Context, userID types.UserID, boardID types.BoardID, columnID types.ColumnID, taskID types.TaskID) error {
	board, exists, err := d.cache.Board(ctx, userID, boardID)
	if err != nil {
		return fmt.Errorf("failed to resolve board: %w", err)
	}
	if !exists {
		return nil
	}
	col := findColumn(board, columnID)
	if col == nil {
		return nil
	}

	ids := taskIDs(col)
	at := -1
	for i, id := range ids {
		if id == taskID {
			at = i
			break
		}
	}
	if at == -1 {
		return nil
	}

	batch := d.store.StartBatch()
	if at > 0 {
		var next *types.TaskID
		if at+1 < len(ids) {
			next = &ids[at+1]
		}
		batch.UpdateTask(boardID, ids[at-1], map[string]any{"nextId": next})
	}
	batch.DeleteTask(boardID, taskID)
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// internals

func (d *Document) boardIDs(ctx context.Context, userID types.UserID) ([]types.BoardID, error) {
	summaries, err := d.cache.BoardList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve board list: %w", err)
	}
	ids := make([]types.BoardID, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids, nil
}

func indexOfBoard(ids []types.BoardID, id types.BoardID) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func taskIDs(col *models.Column) []types.TaskID {
	out := make([]types.TaskID, len(col.Tasks))
	for i, t := range col.Tasks {
		out[i] = t.ID
	}
	return out
}

var _ BoardRepository = (*Document)(nil)

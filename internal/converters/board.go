// Package converters translates between the document-store wire records and
// the in-memory domain models, reconstructing collection order through the
// list codec in both directions.
package converters

import (
	"github.com/thenoetrevino/kanso/internal/docstore"
	"github.com/thenoetrevino/kanso/internal/listcodec"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

// SummariesFromDocs converts a user's board documents to an ordered summary
// list, following the board-level NextID chain.
func SummariesFromDocs(docs map[types.BoardID]docstore.BoardDoc) []*models.BoardSummary {
	records := make(map[types.BoardID]listcodec.Record[types.BoardID, string], len(docs))
	for id, doc := range docs {
		records[id] = listcodec.Record[types.BoardID, string]{Content: doc.Name, NextID: doc.NextID}
	}

	items := listcodec.Decode(records)
	out := make([]*models.BoardSummary, len(items))
	for i, item := range items {
		out[i] = &models.BoardSummary{ID: item.ID, Name: item.Content}
	}
	return out
}

// ColumnsFromDoc converts a board document's columns map to an ordered column
// slice with empty task lists.
func ColumnsFromDoc(doc docstore.BoardDoc) []*models.Column {
	records := make(map[types.ColumnID]listcodec.Record[types.ColumnID, string], len(doc.Columns))
	for id, entry := range doc.Columns {
		records[id] = listcodec.Record[types.ColumnID, string]{Content: entry.Name, NextID: entry.NextID}
	}

	items := listcodec.Decode(records)
	out := make([]*models.Column, len(items))
	for i, item := range items {
		out[i] = &models.Column{ID: item.ID, Name: item.Content, Tasks: []*models.Task{}}
	}
	return out
}

// ColumnsToDocEntries is the inverse of ColumnsFromDoc: it encodes a final
// column order back into the per-entry pointer map stored on the board
// document.
func ColumnsToDocEntries(columns []*models.Column) map[types.ColumnID]docstore.ColumnEntry {
	items := make([]listcodec.Item[types.ColumnID, string], len(columns))
	for i, col := range columns {
		items[i] = listcodec.Item[types.ColumnID, string]{ID: col.ID, Content: col.Name}
	}

	records := listcodec.Encode(items)
	out := make(map[types.ColumnID]docstore.ColumnEntry, len(records))
	for id, rec := range records {
		out[id] = docstore.ColumnEntry{Name: rec.Content, NextID: rec.NextID}
	}
	return out
}

// TasksByColumn groups a board's task documents by owning column and orders
// each group by its own NextID chain.
func TasksByColumn(docs map[types.TaskID]docstore.TaskDoc) map[types.ColumnID][]*models.Task {
	grouped := map[types.ColumnID]map[types.TaskID]listcodec.Record[types.TaskID, docstore.TaskDoc]{}
	for id, doc := range docs {
		col := doc.Status.ID
		if grouped[col] == nil {
			grouped[col] = map[types.TaskID]listcodec.Record[types.TaskID, docstore.TaskDoc]{}
		}
		grouped[col][id] = listcodec.Record[types.TaskID, docstore.TaskDoc]{Content: doc, NextID: doc.NextID}
	}

	out := make(map[types.ColumnID][]*models.Task, len(grouped))
	for col, records := range grouped {
		items := listcodec.Decode(records)
		tasks := make([]*models.Task, len(items))
		for i, item := range items {
			tasks[i] = TaskFromDoc(item.ID, item.Content)
		}
		out[col] = tasks
	}
	return out
}

// TaskFromDoc converts one task document to its model.
func TaskFromDoc(id types.TaskID, doc docstore.TaskDoc) *models.Task {
	subtasks := make([]models.Subtask, len(doc.Subtasks))
	for i, s := range doc.Subtasks {
		subtasks[i] = models.Subtask{Title: s.Title, IsCompleted: s.IsCompleted}
	}
	return &models.Task{
		ID:          id,
		Title:       doc.Title,
		Description: doc.Description,
		Subtasks:    subtasks,
		Status:      models.ColumnRef{ID: doc.Status.ID, Name: doc.Status.Name},
	}
}

// TaskToDoc converts a task model to its wire record. The NextID pointer is
// positional state owned by the caller, so it is passed separately.
func TaskToDoc(task *models.Task, nextID *types.TaskID) docstore.TaskDoc {
	subtasks := make([]docstore.SubtaskEntry, len(task.Subtasks))
	for i, s := range task.Subtasks {
		subtasks[i] = docstore.SubtaskEntry{Title: s.Title, IsCompleted: s.IsCompleted}
	}
	return docstore.TaskDoc{
		Title:       task.Title,
		Description: task.Description,
		Subtasks:    subtasks,
		Status:      docstore.StatusEntry{ID: task.Status.ID, Name: task.Status.Name},
		NextID:      nextID,
	}
}

// BoardFromDocs assembles a full board from its base document and task
// documents.
func BoardFromDocs(id types.BoardID, doc docstore.BoardDoc, tasks map[types.TaskID]docstore.TaskDoc) *models.Board {
	board := &models.Board{ID: id, Name: doc.Name, Columns: ColumnsFromDoc(doc)}
	byColumn := TasksByColumn(tasks)
	for _, col := range board.Columns {
		if ts, ok := byColumn[col.ID]; ok {
			col.Tasks = ts
		}
	}
	return board
}

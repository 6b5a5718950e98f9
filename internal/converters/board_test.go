package converters

import (
	"testing"

	"github.com/thenoetrevino/kanso/internal/docstore"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

func TestColumnsRoundTrip(t *testing.T) {
	columns := []*models.Column{
		{ID: "c1", Name: "todo"},
		{ID: "c2", Name: "doing"},
		{ID: "c3", Name: "done"},
	}

	entries := ColumnsToDocEntries(columns)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries["c3"].NextID != nil {
		t.Errorf("tail NextID = %v, want nil", entries["c3"].NextID)
	}

	back := ColumnsFromDoc(docstore.BoardDoc{Columns: entries})
	if len(back) != 3 {
		t.Fatalf("decoded = %d columns, want 3", len(back))
	}
	for i, col := range columns {
		if back[i].ID != col.ID || back[i].Name != col.Name {
			t.Errorf("decoded[%d] = %+v, want %+v", i, back[i], col)
		}
	}
}

func TestTasksByColumnGroupsAndOrders(t *testing.T) {
	t2 := types.TaskID("t2")
	docs := map[types.TaskID]docstore.TaskDoc{
		"t1": {Title: "first", Status: docstore.StatusEntry{ID: "colA", Name: "todo"}, NextID: &t2},
		"t2": {Title: "second", Status: docstore.StatusEntry{ID: "colA", Name: "todo"}},
		"t3": {Title: "elsewhere", Status: docstore.StatusEntry{ID: "colB", Name: "done"}},
	}

	grouped := TasksByColumn(docs)
	if len(grouped) != 2 {
		t.Fatalf("groups = %d, want 2", len(grouped))
	}
	a := grouped["colA"]
	if len(a) != 2 || a[0].Title != "first" || a[1].Title != "second" {
		t.Errorf("colA = %+v, want [first second]", a)
	}
	if len(grouped["colB"]) != 1 {
		t.Errorf("colB = %+v, want one task", grouped["colB"])
	}
}

func TestBoardFromDocsAttachesTasks(t *testing.T) {
	doc := docstore.BoardDoc{
		Name: "roadmap",
		Columns: map[types.ColumnID]docstore.ColumnEntry{
			"c1": {Name: "todo"},
		},
	}
	tasks := map[types.TaskID]docstore.TaskDoc{
		"t1": {
			Title:    "ship",
			Subtasks: []docstore.SubtaskEntry{{Title: "test", IsCompleted: true}},
			Status:   docstore.StatusEntry{ID: "c1", Name: "todo"},
		},
	}

	board := BoardFromDocs("b1", doc, tasks)
	if board.Name != "roadmap" || len(board.Columns) != 1 {
		t.Fatalf("board = %+v", board)
	}
	col := board.Columns[0]
	if len(col.Tasks) != 1 || col.Tasks[0].Title != "ship" {
		t.Fatalf("tasks = %+v", col.Tasks)
	}
	if got := col.Tasks[0].CompletedSubtasks(); got != 1 {
		t.Errorf("completed subtasks = %d, want 1", got)
	}
}

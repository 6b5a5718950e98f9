package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thenoetrevino/kanso/internal/clock"
	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/types"
)

const memUser types.UserID = "user-1"

func newMemRepo() *Memory {
	return NewMemory(idgen.NewSequential(), nil, 0)
}

func TestMemoryAddAndGetBoard(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	boardID, err := repo.AddBoard(ctx, memUser, NewBoard{
		Name:    "launch",
		Columns: []NewColumn{{Name: "todo"}, {Name: "done"}},
	}, nil)
	if err != nil {
		t.Fatalf("AddBoard: %v", err)
	}

	board, err := repo.GetBoard(ctx, memUser, boardID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.Name != "launch" || len(board.Columns) != 2 {
		t.Errorf("board = %+v", board)
	}

	if _, err := repo.GetBoard(ctx, memUser, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing board err = %v, want ErrNotFound", err)
	}
}

func TestMemoryGetBoardReturnsCopy(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	boardID, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "original", Columns: []NewColumn{{Name: "c"}}}, nil)
	if err != nil {
		t.Fatalf("AddBoard: %v", err)
	}

	board, _ := repo.GetBoard(ctx, memUser, boardID)
	board.Name = "mutated"
	board.Columns[0].Name = "mutated"

	again, _ := repo.GetBoard(ctx, memUser, boardID)
	if again.Name != "original" || again.Columns[0].Name != "c" {
		t.Errorf("internal state leaked through snapshot: %+v", again)
	}
}

func TestMemoryAddBoardSplicesAtIndex(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: name}, nil); err != nil {
			t.Fatalf("AddBoard %s: %v", name, err)
		}
	}
	if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "between"}, intp(1)); err != nil {
		t.Fatalf("AddBoard between: %v", err)
	}
	// Out-of-range appends rather than failing.
	if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "tail"}, intp(99)); err != nil {
		t.Fatalf("AddBoard tail: %v", err)
	}

	list, _ := repo.GetBoardList(ctx, memUser)
	want := []string{"a", "between", "b", "tail"}
	if len(list) != len(want) {
		t.Fatalf("list = %+v, want %v", list, want)
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestMemoryMoveKeepsCardinality(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	var ids []types.BoardID
	for _, name := range []string{"a", "b", "c"} {
		id, err := repo.AddBoard(ctx, memUser, NewBoard{Name: name}, nil)
		if err != nil {
			t.Fatalf("AddBoard %s: %v", name, err)
		}
		ids = append(ids, id)
	}

	if err := repo.UpdateBoard(ctx, memUser, BoardChanges{ID: ids[0]}, intp(2)); err != nil {
		t.Fatalf("UpdateBoard move: %v", err)
	}

	list, _ := repo.GetBoardList(ctx, memUser)
	if len(list) != 3 {
		t.Fatalf("cardinality changed: %d boards", len(list))
	}
	got := []types.BoardID{list[0].ID, list[1].ID, list[2].ID}
	want := []types.BoardID{ids[1], ids[2], ids[0]}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMemoryColumnsKeptReplacesOrder(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	boardID, err := repo.AddBoard(ctx, memUser, NewBoard{
		Name:    "b",
		Columns: []NewColumn{{Name: "one"}, {Name: "two"}},
	}, nil)
	if err != nil {
		t.Fatalf("AddBoard: %v", err)
	}
	board, _ := repo.GetBoard(ctx, memUser, boardID)
	colOne := board.Columns[0].ID
	colTwo := board.Columns[1].ID

	taskID, err := repo.AddTask(ctx, memUser, boardID, colOne, NewTask{Title: "t"}, nil)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// Flip order, rename the task's column, add a new one at the end.
	err = repo.UpdateBoard(ctx, memUser, BoardChanges{
		ID: boardID,
		ColumnsKept: []KeptColumn{
			{ID: colTwo, Name: "two"},
			{ID: colOne, Name: "renamed"},
			{Name: "fresh", IsAdded: true},
		},
	}, nil)
	if err != nil {
		t.Fatalf("UpdateBoard: %v", err)
	}

	board, _ = repo.GetBoard(ctx, memUser, boardID)
	if len(board.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(board.Columns))
	}
	if board.Columns[0].ID != colTwo || board.Columns[1].ID != colOne {
		t.Errorf("order = [%s %s], want [two renamed]", board.Columns[0].Name, board.Columns[1].Name)
	}
	if board.Columns[2].Name != "fresh" || len(board.Columns[2].Tasks) != 0 {
		t.Errorf("added column = %+v", board.Columns[2])
	}

	// The surviving task followed its column and carries the new status name.
	kept := board.Columns[1].Tasks
	if len(kept) != 1 || kept[0].ID != taskID {
		t.Fatalf("tasks = %+v, want the original task", kept)
	}
	if kept[0].Status.Name != "renamed" || kept[0].Status.ID != colOne {
		t.Errorf("status = %+v, want {%s renamed}", kept[0].Status, colOne)
	}
}

func TestMemoryUpdateBoardUnknownColumnFailsEarly(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	boardID, _ := repo.AddBoard(ctx, memUser, NewBoard{Name: "b", Columns: []NewColumn{{Name: "c"}}}, nil)

	err := repo.UpdateBoard(ctx, memUser, BoardChanges{
		ID:   boardID,
		Name: strp("changed"),
		ColumnsKept: []KeptColumn{
			{ID: "missing", Name: "x"},
		},
	}, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// Validation failed before anything was touched.
	board, _ := repo.GetBoard(ctx, memUser, boardID)
	if board.Name != "b" {
		t.Errorf("name = %q, partial update applied", board.Name)
	}
}

func TestMemoryCrossColumnMove(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	boardID, _ := repo.AddBoard(ctx, memUser, NewBoard{
		Name:    "b",
		Columns: []NewColumn{{Name: "A"}, {Name: "B"}},
	}, nil)
	board, _ := repo.GetBoard(ctx, memUser, boardID)
	colA := board.Columns[0].ID
	colB := board.Columns[1].ID

	taskT, _ := repo.AddTask(ctx, memUser, boardID, colA, NewTask{Title: "T"}, nil)
	repo.AddTask(ctx, memUser, boardID, colA, NewTask{Title: "U"}, nil)
	repo.AddTask(ctx, memUser, boardID, colB, NewTask{Title: "V"}, nil)

	err := repo.UpdateTask(ctx, memUser, boardID, colB, TaskChanges{ID: taskT}, intp(0), &colA)
	if err != nil {
		t.Fatalf("UpdateTask move: %v", err)
	}

	board, _ = repo.GetBoard(ctx, memUser, boardID)
	if got := taskTitles(board.Columns[0]); got != "[U]" {
		t.Errorf("column A = %s, want [U]", got)
	}
	if got := taskTitles(board.Columns[1]); got != "[T V]" {
		t.Errorf("column B = %s, want [T V]", got)
	}
	if board.Columns[1].Tasks[0].Status.ID != colB {
		t.Errorf("moved task status = %+v", board.Columns[1].Tasks[0].Status)
	}
}

func TestMemoryDeleteIsSilentNoop(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	if err := repo.DeleteBoard(ctx, memUser, "missing"); err != nil {
		t.Errorf("DeleteBoard = %v, want nil", err)
	}
	if err := repo.DeleteTask(ctx, memUser, "missing", "missing", "missing"); err != nil {
		t.Errorf("DeleteTask = %v, want nil", err)
	}
}

func TestMemoryListenersNotifiedAndUnsubIdempotent(t *testing.T) {
	repo := newMemRepo()
	defer repo.Close()
	ctx := context.Background()

	first := 0
	second := 0
	unsub, err := repo.ListenToBoardListChange(memUser, func([]*models.BoardSummary) { first++ })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if _, err := repo.ListenToBoardListChange(memUser, func([]*models.BoardSummary) { second++ }); err != nil {
		t.Fatalf("listen: %v", err)
	}

	if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "a"}, nil); err != nil {
		t.Fatalf("AddBoard: %v", err)
	}
	if first != 1 || second != 1 {
		t.Fatalf("counts = (%d, %d), want (1, 1)", first, second)
	}

	unsub()
	unsub()

	if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "b"}, nil); err != nil {
		t.Fatalf("AddBoard: %v", err)
	}
	if first != 1 {
		t.Errorf("removed listener fired again: %d", first)
	}
	if second != 2 {
		t.Errorf("surviving listener count = %d, want 2", second)
	}
}

func TestMemoryPollRenotifiesListeners(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	repo := NewMemory(idgen.NewSequential(), clk, time.Second)
	defer repo.Close()
	ctx := context.Background()

	if _, err := repo.AddBoard(ctx, memUser, NewBoard{Name: "a"}, nil); err != nil {
		t.Fatalf("AddBoard: %v", err)
	}

	notified := make(chan []*models.BoardSummary, 4)
	if _, err := repo.ListenToBoardListChange(memUser, func(l []*models.BoardSummary) {
		notified <- l
	}); err != nil {
		t.Fatalf("listen: %v", err)
	}

	clk.Tick(time.Second)

	select {
	case list := <-notified:
		if len(list) != 1 || list[0].Name != "a" {
			t.Errorf("polled list = %+v", list)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no poll notification")
	}
}

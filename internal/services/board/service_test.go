package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thenoetrevino/kanso/internal/auth"
	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/notify"
	"github.com/thenoetrevino/kanso/internal/repository"
)

func newTestService(t *testing.T, authRepo auth.Repository, demoMode bool) (Service, *notify.Spy) {
	t.Helper()
	repo := repository.NewMemory(idgen.NewSequential(), nil, 0)
	t.Cleanup(func() { repo.Close() })
	spy := notify.NewSpy()
	return NewService(repo, authRepo, spy, demoMode), spy
}

func TestAddBoardAndReadBack(t *testing.T) {
	svc, spy := newTestService(t, auth.NewStatic("alice"), false)
	ctx := context.Background()

	boardID, err := svc.AddBoard(ctx, CreateBoardRequest{
		Name:    "launch",
		Columns: []string{"todo", "doing", "done"},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, boardID)
	assert.Len(t, spy.Successes, 1)

	board := svc.GetBoard(ctx, boardID)
	if assert.NotNil(t, board) {
		assert.Equal(t, "launch", board.Name)
		assert.Len(t, board.Columns, 3)
	}

	list := svc.GetBoardList(ctx)
	assert.Len(t, list, 1)
	assert.Equal(t, boardID, list[0].ID)
}

func TestAddBoardValidation(t *testing.T) {
	svc, spy := newTestService(t, auth.NewStatic("alice"), false)

	_, err := svc.AddBoard(context.Background(), CreateBoardRequest{Name: ""})
	assert.ErrorIs(t, err, ErrEmptyBoardName)
	assert.Equal(t, ErrEmptyBoardName.Error(), spy.LastError())
}

func TestUnauthenticatedShortCircuits(t *testing.T) {
	svc, spy := newTestService(t, auth.NewLoggedOut(), false)
	ctx := context.Background()

	_, err := svc.AddBoard(ctx, CreateBoardRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = svc.DeleteBoard(ctx, "some-board")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ListenToBoardListChange(func([]*models.BoardSummary) {})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Queries collapse to empty results instead of failing.
	assert.Empty(t, svc.GetBoardList(ctx))
	assert.Nil(t, svc.GetBoard(ctx, "some-board"))
	assert.NotEmpty(t, spy.Errors)
}

func TestDemoModeWorksWithoutLogin(t *testing.T) {
	svc, _ := newTestService(t, auth.NewLoggedOut(), true)
	ctx := context.Background()

	boardID, err := svc.AddBoard(ctx, CreateBoardRequest{Name: "demo board"})
	assert.NoError(t, err)

	list := svc.GetBoardList(ctx)
	if assert.Len(t, list, 1) {
		assert.Equal(t, boardID, list[0].ID)
	}
}

func TestGetBoardUnknownNotifiesAndReturnsNil(t *testing.T) {
	svc, spy := newTestService(t, auth.NewStatic("alice"), false)

	board := svc.GetBoard(context.Background(), "missing")
	assert.Nil(t, board)
	assert.Equal(t, models.ErrNotFound.Error(), spy.LastError())
}

func TestTaskLifecycle(t *testing.T) {
	svc, spy := newTestService(t, auth.NewStatic("alice"), false)
	ctx := context.Background()

	boardID, err := svc.AddBoard(ctx, CreateBoardRequest{Name: "b", Columns: []string{"todo", "doing"}})
	assert.NoError(t, err)
	board := svc.GetBoard(ctx, boardID)
	colTodo := board.Columns[0].ID
	colDoing := board.Columns[1].ID

	taskID, err := svc.AddTask(ctx, CreateTaskRequest{
		BoardID:  boardID,
		ColumnID: colTodo,
		Title:    "write tests",
		Subtasks: []models.Subtask{{Title: "unit"}, {Title: "integration"}},
	})
	assert.NoError(t, err)

	newTitle := "write more tests"
	err = svc.UpdateTask(ctx, UpdateTaskRequest{
		BoardID:     boardID,
		ColumnID:    colDoing,
		TaskID:      taskID,
		Title:       &newTitle,
		OldColumnID: &colTodo,
	})
	assert.NoError(t, err)

	board = svc.GetBoard(ctx, boardID)
	assert.Empty(t, board.Columns[0].Tasks)
	if assert.Len(t, board.Columns[1].Tasks, 1) {
		moved := board.Columns[1].Tasks[0]
		assert.Equal(t, newTitle, moved.Title)
		assert.Equal(t, colDoing, moved.Status.ID)
	}

	err = svc.DeleteTask(ctx, boardID, colDoing, taskID)
	assert.NoError(t, err)
	board = svc.GetBoard(ctx, boardID)
	assert.Empty(t, board.Columns[1].Tasks)
	assert.NotEmpty(t, spy.Successes)
}

func TestTaskValidation(t *testing.T) {
	svc, _ := newTestService(t, auth.NewStatic("alice"), false)
	ctx := context.Background()

	_, err := svc.AddTask(ctx, CreateTaskRequest{BoardID: "", ColumnID: "c", Title: "t"})
	assert.ErrorIs(t, err, ErrInvalidBoardID)

	_, err = svc.AddTask(ctx, CreateTaskRequest{BoardID: "b", ColumnID: "", Title: "t"})
	assert.ErrorIs(t, err, ErrInvalidColumnID)

	_, err = svc.AddTask(ctx, CreateTaskRequest{BoardID: "b", ColumnID: "c", Title: ""})
	assert.ErrorIs(t, err, ErrEmptyTaskTitle)

	err = svc.UpdateTask(ctx, UpdateTaskRequest{BoardID: "b", ColumnID: "c", TaskID: ""})
	assert.ErrorIs(t, err, ErrInvalidTaskID)
}

func TestRepositoryErrorsAreForwardedToNotifier(t *testing.T) {
	svc, spy := newTestService(t, auth.NewStatic("alice"), false)
	ctx := context.Background()

	_, err := svc.AddTask(ctx, CreateTaskRequest{
		BoardID:  "missing-board",
		ColumnID: "missing-column",
		Title:    "t",
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, spy.LastError(), models.ErrNotFound.Error())
}

func TestListenersThroughService(t *testing.T) {
	svc, _ := newTestService(t, auth.NewStatic("alice"), false)
	ctx := context.Background()

	var seen [][]*models.BoardSummary
	unsub, err := svc.ListenToBoardListChange(func(l []*models.BoardSummary) {
		seen = append(seen, l)
	})
	assert.NoError(t, err)
	defer unsub()

	_, err = svc.AddBoard(ctx, CreateBoardRequest{Name: "watched"})
	assert.NoError(t, err)
	if assert.NotEmpty(t, seen) {
		assert.Len(t, seen[len(seen)-1], 1)
	}
}

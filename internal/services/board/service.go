// Package board is the use-case layer over the board repository. It resolves
// the acting user, validates requests, delegates to whichever repository
// variant was wired in, and reports outcomes through the notification sink.
package board

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/kanso/internal/auth"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/notify"
	"github.com/thenoetrevino/kanso/internal/repository"
	"github.com/thenoetrevino/kanso/internal/types"
)

// Service defines all board-related business operations
type Service interface {
	// Read operations. Failures are reported through the notifier and
	// collapse to empty results, so callers can render unconditionally.
	GetBoardList(ctx context.Context) []*models.BoardSummary
	GetBoard(ctx context.Context, boardID types.BoardID) *models.Board

	// Subscriptions
	ListenToBoardListChange(cb func([]*models.BoardSummary)) (func(), error)
	ListenToBoardChange(boardID types.BoardID, cb func(*models.Board)) (func(), error)

	// Write operations
	AddBoard(ctx context.Context, req CreateBoardRequest) (types.BoardID, error)
	UpdateBoard(ctx context.Context, req UpdateBoardRequest) error
	DeleteBoard(ctx context.Context, boardID types.BoardID) error

	AddTask(ctx context.Context, req CreateTaskRequest) (types.TaskID, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) error
	DeleteTask(ctx context.Context, boardID types.BoardID, columnID types.ColumnID, taskID types.TaskID) error
}

// CreateBoardRequest encapsulates all data needed to create a board
type CreateBoardRequest struct {
	Name    string
	Columns []string
	Index   *int
}

// UpdateBoardRequest encapsulates a board update. Nil fields are left
// unchanged; Index moves the board within the user's list.
type UpdateBoardRequest struct {
	ID             types.BoardID
	Name           *string
	ColumnsKept    []repository.KeptColumn
	ColumnsDeleted []types.ColumnID
	Index          *int
}

// CreateTaskRequest encapsulates all data needed to create a task
type CreateTaskRequest struct {
	BoardID     types.BoardID
	ColumnID    types.ColumnID
	Title       string
	Description string
	Subtasks    []models.Subtask
	Index       *int
}

// UpdateTaskRequest encapsulates a task update. OldColumnID marks a move out
// of that column into ColumnID; without it a non-nil Index reorders the task
// within its column.
type UpdateTaskRequest struct {
	BoardID     types.BoardID
	ColumnID    types.ColumnID
	TaskID      types.TaskID
	Title       *string
	Description *string
	Subtasks    []models.Subtask
	Index       *int
	OldColumnID *types.ColumnID
}

// service implements Service interface
type service struct {
	repo     repository.BoardRepository
	auth     auth.Repository
	notifier notify.Notifier
	demoMode bool
}

// NewService creates a new board service. With demoMode set, every operation
// runs as the synthetic demo user regardless of auth state.
func NewService(repo repository.BoardRepository, authRepo auth.Repository, notifier notify.Notifier, demoMode bool) Service {
	return &service{
		repo:     repo,
		auth:     authRepo,
		notifier: notifier,
		demoMode: demoMode,
	}
}

func (s *service) GetBoardList(ctx context.Context) []*models.BoardSummary {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return []*models.BoardSummary{}
	}

	list, err := s.repo.GetBoardList(ctx, userID)
	if err != nil {
		s.notifier.Error(err.Error())
		return []*models.BoardSummary{}
	}
	return list
}

func (s *service) GetBoard(ctx context.Context, boardID types.BoardID) *models.Board {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return nil
	}

	board, err := s.repo.GetBoard(ctx, userID, boardID)
	if err != nil {
		s.notifier.Error(err.Error())
		return nil
	}
	return board
}

func (s *service) ListenToBoardListChange(cb func([]*models.BoardSummary)) (func(), error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	return s.repo.ListenToBoardListChange(userID, cb)
}

func (s *service) ListenToBoardChange(boardID types.BoardID, cb func(*models.Board)) (func(), error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if boardID == "" {
		return nil, ErrInvalidBoardID
	}
	return s.repo.ListenToBoardChange(userID, boardID, cb)
}

// AddBoard handles board creation with validation
func (s *service) AddBoard(ctx context.Context, req CreateBoardRequest) (types.BoardID, error) {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return "", err
	}
	if req.Name == "" {
		s.notifier.Error(ErrEmptyBoardName.Error())
		return "", ErrEmptyBoardName
	}

	columns := make([]repository.NewColumn, len(req.Columns))
	for i, name := range req.Columns {
		columns[i] = repository.NewColumn{Name: name}
	}

	boardID, err := s.repo.AddBoard(ctx, userID, repository.NewBoard{Name: req.Name, Columns: columns}, req.Index)
	if err != nil {
		s.notifier.Error(err.Error())
		return "", fmt.Errorf("failed to create board: %w", err)
	}

	s.notifier.Success(fmt.Sprintf("Board %q created", req.Name))
	return boardID, nil
}

// UpdateBoard handles board renames, column changes, and repositioning
func (s *service) UpdateBoard(ctx context.Context, req UpdateBoardRequest) error {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	if req.ID == "" {
		s.notifier.Error(ErrInvalidBoardID.Error())
		return ErrInvalidBoardID
	}
	if req.Name != nil && *req.Name == "" {
		s.notifier.Error(ErrEmptyBoardName.Error())
		return ErrEmptyBoardName
	}

	changes := repository.BoardChanges{
		ID:             req.ID,
		Name:           req.Name,
		ColumnsKept:    req.ColumnsKept,
		ColumnsDeleted: req.ColumnsDeleted,
	}
	if err := s.repo.UpdateBoard(ctx, userID, changes, req.Index); err != nil {
		s.notifier.Error(err.Error())
		return fmt.Errorf("failed to update board: %w", err)
	}

	s.notifier.Success("Board updated")
	return nil
}

// DeleteBoard removes a board and everything it owns
func (s *service) DeleteBoard(ctx context.Context, boardID types.BoardID) error {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	if boardID == "" {
		s.notifier.Error(ErrInvalidBoardID.Error())
		return ErrInvalidBoardID
	}

	if err := s.repo.DeleteBoard(ctx, userID, boardID); err != nil {
		s.notifier.Error(err.Error())
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.notifier.Success("Board deleted")
	return nil
}

// AddTask handles task creation with validation
func (s *service) AddTask(ctx context.Context, req CreateTaskRequest) (types.TaskID, error) {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return "", err
	}
	if req.BoardID == "" {
		s.notifier.Error(ErrInvalidBoardID.Error())
		return "", ErrInvalidBoardID
	}
	if req.ColumnID == "" {
		s.notifier.Error(ErrInvalidColumnID.Error())
		return "", ErrInvalidColumnID
	}
	if req.Title == "" {
		s.notifier.Error(ErrEmptyTaskTitle.Error())
		return "", ErrEmptyTaskTitle
	}

	task := repository.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Subtasks:    req.Subtasks,
	}
	taskID, err := s.repo.AddTask(ctx, userID, req.BoardID, req.ColumnID, task, req.Index)
	if err != nil {
		s.notifier.Error(err.Error())
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	s.notifier.Success(fmt.Sprintf("Task %q created", req.Title))
	return taskID, nil
}

// UpdateTask handles task content changes, reordering, and column moves
func (s *service) UpdateTask(ctx context.Context, req UpdateTaskRequest) error {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	if req.BoardID == "" {
		s.notifier.Error(ErrInvalidBoardID.Error())
		return ErrInvalidBoardID
	}
	if req.ColumnID == "" {
		s.notifier.Error(ErrInvalidColumnID.Error())
		return ErrInvalidColumnID
	}
	if req.TaskID == "" {
		s.notifier.Error(ErrInvalidTaskID.Error())
		return ErrInvalidTaskID
	}
	if req.Title != nil && *req.Title == "" {
		s.notifier.Error(ErrEmptyTaskTitle.Error())
		return ErrEmptyTaskTitle
	}

	changes := repository.TaskChanges{
		ID:          req.TaskID,
		Title:       req.Title,
		Description: req.Description,
		Subtasks:    req.Subtasks,
	}
	if err := s.repo.UpdateTask(ctx, userID, req.BoardID, req.ColumnID, changes, req.Index, req.OldColumnID); err != nil {
		s.notifier.Error(err.Error())
		return fmt.Errorf("failed to update task: %w", err)
	}

	s.notifier.Success("Task updated")
	return nil
}

// DeleteTask removes a task from its column
func (s *service) DeleteTask(ctx context.Context, boardID types.BoardID, columnID types.ColumnID, taskID types.TaskID) error {
	userID, err := s.currentUser()
	if err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	if boardID == "" {
		s.notifier.Error(ErrInvalidBoardID.Error())
		return ErrInvalidBoardID
	}
	if columnID == "" {
		s.notifier.Error(ErrInvalidColumnID.Error())
		return ErrInvalidColumnID
	}
	if taskID == "" {
		s.notifier.Error(ErrInvalidTaskID.Error())
		return ErrInvalidTaskID
	}

	if err := s.repo.DeleteTask(ctx, userID, boardID, columnID, taskID); err != nil {
		s.notifier.Error(err.Error())
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.notifier.Success("Task deleted")
	return nil
}

// currentUser resolves the acting user id. Demo mode pins it to the synthetic
// demo user so the engine works without an identity provider.
func (s *service) currentUser() (types.UserID, error) {
	if s.demoMode {
		return types.DemoUser, nil
	}
	if user, ok := s.auth.CurrentUser(); ok {
		return user, nil
	}
	return "", ErrUnauthenticated
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kanso/internal/auth"
	"github.com/thenoetrevino/kanso/internal/clock"
	"github.com/thenoetrevino/kanso/internal/config"
	"github.com/thenoetrevino/kanso/internal/docstore"
	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/logging"
	"github.com/thenoetrevino/kanso/internal/models"
	"github.com/thenoetrevino/kanso/internal/notify"
	"github.com/thenoetrevino/kanso/internal/repository"
	"github.com/thenoetrevino/kanso/internal/services/board"
	"github.com/thenoetrevino/kanso/internal/types"
)

var demoDBPath string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed a sample board and print it",
	Long:  `Creates a sample board with a few tasks, exercises a move and a rename, and prints the resulting board. Runs in-memory unless --db points at a SQLite file.`,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoDBPath, "db", "", "SQLite database file (default: in-memory)")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if err := logging.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath := demoDBPath
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	var repo repository.BoardRepository
	if dbPath != "" {
		store, err := docstore.OpenSQLite(dbPath, idgen.NewUUID())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		repo = repository.NewDocument(store)
	} else {
		repo = repository.NewMemory(idgen.NewUUID(), clock.NewReal(), cfg.PollInterval())
	}
	defer repo.Close()

	svc := board.NewService(repo, auth.NewStatic(types.DemoUser), notify.NewLog(), true)
	ctx := cmd.Context()

	boardID, err := svc.AddBoard(ctx, board.CreateBoardRequest{
		Name:    "Welcome to kanso",
		Columns: []string{"Todo", "Doing", "Done"},
	})
	if err != nil {
		return err
	}

	seeded := svc.GetBoard(ctx, boardID)
	if seeded == nil {
		return fmt.Errorf("seeded board disappeared")
	}
	todo := seeded.Columns[0].ID
	doing := seeded.Columns[1].ID

	taskID, err := svc.AddTask(ctx, board.CreateTaskRequest{
		BoardID:  boardID,
		ColumnID: todo,
		Title:    "Explore the board",
		Subtasks: []models.Subtask{
			{Title: "Add a task"},
			{Title: "Move it between columns"},
		},
	})
	if err != nil {
		return err
	}
	if _, err := svc.AddTask(ctx, board.CreateTaskRequest{
		BoardID:  boardID,
		ColumnID: todo,
		Title:    "Read the docs",
	}); err != nil {
		return err
	}

	// Exercise a cross-column move so the printed board shows real state.
	if err := svc.UpdateTask(ctx, board.UpdateTaskRequest{
		BoardID:     boardID,
		ColumnID:    doing,
		TaskID:      taskID,
		OldColumnID: &todo,
	}); err != nil {
		return err
	}

	printBoard(cmd, svc.GetBoard(ctx, boardID))
	return nil
}

func printBoard(cmd *cobra.Command, b *models.Board) {
	if b == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", b.Name)
	for _, col := range b.Columns {
		fmt.Fprintf(out, "  [%s]\n", col.Name)
		for _, task := range col.Tasks {
			fmt.Fprintf(out, "    - %s", task.Title)
			if len(task.Subtasks) > 0 {
				fmt.Fprintf(out, " (%d/%d)", task.CompletedSubtasks(), len(task.Subtasks))
			}
			fmt.Fprintln(out)
		}
	}
}

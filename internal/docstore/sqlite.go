package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/thenoetrevino/kanso/internal/idgen"
	"github.com/thenoetrevino/kanso/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id      TEXT PRIMARY KEY,
	owner   TEXT NOT NULL,
	name    TEXT NOT NULL,
	columns TEXT NOT NULL DEFAULT '{}',
	next_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner);

CREATE TABLE IF NOT EXISTS tasks (
	board_id    TEXT NOT NULL,
	id          TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	subtasks    TEXT NOT NULL DEFAULT '[]',
	status_id   TEXT NOT NULL,
	status_name TEXT NOT NULL,
	next_id     TEXT,
	PRIMARY KEY (board_id, id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);
`

// SQLiteStore implements the adapter over a local SQLite file. Documents are
// rows with JSON-encoded nested maps; a batch is one SQL transaction; the
// push channel is simulated by re-querying and notifying subscriptions after
// every committed batch that touched their scope.
type SQLiteStore struct {
	db  *sql.DB
	ids idgen.Generator
	hub *snapshotHub

	// SQLite allows one writer; serializing batches here keeps commit +
	// notification rounds in order.
	writeMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path and prepares the
// schema.
func OpenSQLite(path string, gen idgen.Generator) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	store, err := NewSQLiteStore(db, gen)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an already-open connection, running migrations first.
// Tests pass a ":memory:" connection here.
func NewSQLiteStore(db *sql.DB, gen idgen.Generator) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteStore{db: db, ids: gen, hub: newSnapshotHub()}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) GetUserBoardDocs(ctx context.Context, userID types.UserID) (map[types.BoardID]BoardDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, name, columns, next_id FROM boards WHERE owner = ?`,
		string(userID))
	if err != nil {
		return nil, fmt.Errorf("querying boards for user: %w", err)
	}
	defer rows.Close()

	out := map[types.BoardID]BoardDoc{}
	for rows.Next() {
		id, doc, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out[id] = doc
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetBoardDoc(ctx context.Context, boardID types.BoardID) (BoardDoc, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, name, columns, next_id FROM boards WHERE id = ?`,
		string(boardID))
	_, doc, err := scanBoard(row)
	if err == sql.ErrNoRows {
		return BoardDoc{}, false, nil
	}
	if err != nil {
		return BoardDoc{}, false, err
	}
	return doc, true, nil
}

func (s *SQLiteStore) GetBoardTaskDocs(ctx context.Context, boardID types.BoardID) (map[types.TaskID]TaskDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, subtasks, status_id, status_name, next_id
		 FROM tasks WHERE board_id = ?`,
		string(boardID))
	if err != nil {
		return nil, fmt.Errorf("querying tasks for board: %w", err)
	}
	defer rows.Close()

	out := map[types.TaskID]TaskDoc{}
	for rows.Next() {
		id, doc, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out[id] = doc
	}
	return out, rows.Err()
}

func (s *SQLiteStore) OnUserBoardDocsSnapshot(userID types.UserID, cb func(map[types.BoardID]BoardDoc)) func() {
	return s.hub.addUser(userID, cb)
}

func (s *SQLiteStore) OnBoardDocSnapshot(boardID types.BoardID, cb func(BoardDoc, bool)) func() {
	return s.hub.addBoard(boardID, cb)
}

func (s *SQLiteStore) OnBoardTaskDocsSnapshot(boardID types.BoardID, cb func(map[types.TaskID]TaskDoc)) func() {
	return s.hub.addTasks(boardID, cb)
}

func (s *SQLiteStore) NewBoardID() types.BoardID   { return s.ids.NewBoardID() }
func (s *SQLiteStore) NewColumnID() types.ColumnID { return s.ids.NewColumnID() }

func (s *SQLiteStore) NewTaskID(types.BoardID) types.TaskID { return s.ids.NewTaskID() }

func (s *SQLiteStore) StartBatch() Batch {
	return &sqliteBatch{store: s}
}

type sqliteBatch struct {
	store *SQLiteStore
	ops   []stagedOp
}

func (b *sqliteBatch) SetBoard(id types.BoardID, doc BoardDoc) {
	d := doc.Clone()
	b.ops = append(b.ops, stagedOp{boardID: id, setBoard: &d})
}

func (b *sqliteBatch) UpdateBoard(id types.BoardID, fields map[string]any) {
	b.ops = append(b.ops, stagedOp{boardID: id, updateBoard: fields})
}

func (b *sqliteBatch) DeleteBoard(id types.BoardID) {
	b.ops = append(b.ops, stagedOp{boardID: id, deleteBoard: true})
}

func (b *sqliteBatch) SetTask(boardID types.BoardID, id types.TaskID, doc TaskDoc) {
	d := doc.Clone()
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, setTask: &d})
}

func (b *sqliteBatch) UpdateTask(boardID types.BoardID, id types.TaskID, fields map[string]any) {
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, updateTask: fields})
}

func (b *sqliteBatch) DeleteTask(boardID types.BoardID, id types.TaskID) {
	b.ops = append(b.ops, stagedOp{boardID: boardID, taskID: id, deleteTask: true})
}

// Commit applies every staged operation inside one transaction, then fans
// fresh snapshots out to the touched scopes.
func (b *sqliteBatch) Commit(ctx context.Context) error {
	s := b.store
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	owners := map[types.UserID]bool{}
	boardsTouched := map[types.BoardID]bool{}
	taskScopesTouched := map[types.BoardID]bool{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Warn("failed to rollback batch", "error", err)
		}
	}()

	for _, op := range b.ops {
		if owner, ok, err := boardOwnerTx(ctx, tx, op.boardID); err != nil {
			return err
		} else if ok {
			owners[owner] = true
		}

		if err := b.applyTx(ctx, tx, op); err != nil {
			return err
		}

		switch {
		case op.setBoard != nil, op.updateBoard != nil, op.deleteBoard:
			boardsTouched[op.boardID] = true
		default:
			taskScopesTouched[op.boardID] = true
		}

		if owner, ok, err := boardOwnerTx(ctx, tx, op.boardID); err != nil {
			return err
		} else if ok {
			owners[owner] = true
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	for owner := range owners {
		s.notifyUser(ctx, owner)
	}
	for boardID := range boardsTouched {
		s.notifyBoard(ctx, boardID)
	}
	for boardID := range taskScopesTouched {
		s.notifyTasks(ctx, boardID)
	}
	return nil
}

func (b *sqliteBatch) applyTx(ctx context.Context, tx *sql.Tx, op stagedOp) error {
	switch {
	case op.setBoard != nil:
		return upsertBoardTx(ctx, tx, op.boardID, *op.setBoard)

	case op.updateBoard != nil:
		row := tx.QueryRowContext(ctx,
			`SELECT id, owner, name, columns, next_id FROM boards WHERE id = ?`,
			string(op.boardID))
		_, doc, err := scanBoard(row)
		if err == sql.ErrNoRows {
			return errUnknownDoc("board", string(op.boardID))
		}
		if err != nil {
			return err
		}
		if err := applyBoardFields(&doc, op.updateBoard); err != nil {
			return err
		}
		return upsertBoardTx(ctx, tx, op.boardID, doc)

	case op.deleteBoard:
		_, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, string(op.boardID))
		return err

	case op.setTask != nil:
		return upsertTaskTx(ctx, tx, op.boardID, op.taskID, *op.setTask)

	case op.updateTask != nil:
		row := tx.QueryRowContext(ctx,
			`SELECT id, title, description, subtasks, status_id, status_name, next_id
			 FROM tasks WHERE board_id = ? AND id = ?`,
			string(op.boardID), string(op.taskID))
		_, doc, err := scanTask(row)
		if err == sql.ErrNoRows {
			return errUnknownDoc("task", string(op.taskID))
		}
		if err != nil {
			return err
		}
		if err := applyTaskFields(&doc, op.updateTask); err != nil {
			return err
		}
		return upsertTaskTx(ctx, tx, op.boardID, op.taskID, doc)

	case op.deleteTask:
		_, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE board_id = ? AND id = ?`,
			string(op.boardID), string(op.taskID))
		return err
	}
	return nil
}

func boardOwnerTx(ctx context.Context, tx *sql.Tx, boardID types.BoardID) (types.UserID, bool, error) {
	var owner string
	err := tx.QueryRowContext(ctx,
		`SELECT owner FROM boards WHERE id = ?`, string(boardID)).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.UserID(owner), true, nil
}

func upsertBoardTx(ctx context.Context, tx *sql.Tx, id types.BoardID, doc BoardDoc) error {
	cols, err := json.Marshal(doc.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	var next sql.NullString
	if doc.NextID != nil {
		next = sql.NullString{String: string(*doc.NextID), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO boards (id, owner, name, columns, next_id) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET owner = excluded.owner, name = excluded.name,
		 columns = excluded.columns, next_id = excluded.next_id`,
		string(id), string(doc.Owner), doc.Name, string(cols), next)
	return err
}

func upsertTaskTx(ctx context.Context, tx *sql.Tx, boardID types.BoardID, id types.TaskID, doc TaskDoc) error {
	subs, err := json.Marshal(doc.Subtasks)
	if err != nil {
		return fmt.Errorf("encoding subtasks: %w", err)
	}
	var next sql.NullString
	if doc.NextID != nil {
		next = sql.NullString{String: string(*doc.NextID), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (board_id, id, title, description, subtasks, status_id, status_name, next_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(board_id, id) DO UPDATE SET title = excluded.title,
		 description = excluded.description, subtasks = excluded.subtasks,
		 status_id = excluded.status_id, status_name = excluded.status_name,
		 next_id = excluded.next_id`,
		string(boardID), string(id), doc.Title, doc.Description, string(subs),
		string(doc.Status.ID), doc.Status.Name, next)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoard(row rowScanner) (types.BoardID, BoardDoc, error) {
	var id, owner, name, columns string
	var next sql.NullString
	if err := row.Scan(&id, &owner, &name, &columns, &next); err != nil {
		return "", BoardDoc{}, err
	}

	doc := BoardDoc{Owner: types.UserID(owner), Name: name}
	if err := json.Unmarshal([]byte(columns), &doc.Columns); err != nil {
		return "", BoardDoc{}, fmt.Errorf("decoding columns for board %s: %w", id, err)
	}
	if doc.Columns == nil {
		doc.Columns = map[types.ColumnID]ColumnEntry{}
	}
	if next.Valid {
		nid := types.BoardID(next.String)
		doc.NextID = &nid
	}
	return types.BoardID(id), doc, nil
}

func scanTask(row rowScanner) (types.TaskID, TaskDoc, error) {
	var id, title, description, subtasks, statusID, statusName string
	var next sql.NullString
	if err := row.Scan(&id, &title, &description, &subtasks, &statusID, &statusName, &next); err != nil {
		return "", TaskDoc{}, err
	}

	doc := TaskDoc{
		Title:       title,
		Description: description,
		Status:      StatusEntry{ID: types.ColumnID(statusID), Name: statusName},
	}
	if err := json.Unmarshal([]byte(subtasks), &doc.Subtasks); err != nil {
		return "", TaskDoc{}, fmt.Errorf("decoding subtasks for task %s: %w", id, err)
	}
	if next.Valid {
		nid := types.TaskID(next.String)
		doc.NextID = &nid
	}
	return types.TaskID(id), doc, nil
}

func (s *SQLiteStore) notifyUser(ctx context.Context, userID types.UserID) {
	docs, err := s.GetUserBoardDocs(ctx, userID)
	if err != nil {
		slog.Warn("snapshot query failed", "scope", "user", "error", err)
		return
	}
	for _, cb := range s.hub.userCallbacks(userID) {
		cb(docs)
	}
}

func (s *SQLiteStore) notifyBoard(ctx context.Context, boardID types.BoardID) {
	doc, exists, err := s.GetBoardDoc(ctx, boardID)
	if err != nil {
		slog.Warn("snapshot query failed", "scope", "board", "error", err)
		return
	}
	for _, cb := range s.hub.boardCallbacks(boardID) {
		cb(doc, exists)
	}
}

func (s *SQLiteStore) notifyTasks(ctx context.Context, boardID types.BoardID) {
	docs, err := s.GetBoardTaskDocs(ctx, boardID)
	if err != nil {
		slog.Warn("snapshot query failed", "scope", "tasks", "error", err)
		return
	}
	for _, cb := range s.hub.taskCallbacks(boardID) {
		cb(docs)
	}
}

var _ Store = (*SQLiteStore)(nil)

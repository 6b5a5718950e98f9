package types

// ID type aliases provide semantic meaning for the string document ids used
// throughout the engine. They document what each identifier scopes to and
// keep signatures honest without runtime cost.

// UserID identifies the owner of a set of boards
type UserID string

// BoardID identifies a unique board within a user's board list
type BoardID string

// ColumnID identifies a unique column within a board
type ColumnID string

// TaskID identifies a unique task within a board.
// Tasks live in a single board-scoped collection and reference their column
// through a status entry, so uniqueness is per board, not per column.
type TaskID string

// DemoUser is the synthetic user id used when running without authentication.
const DemoUser UserID = "demo"

func (id UserID) String() string   { return string(id) }
func (id BoardID) String() string  { return string(id) }
func (id ColumnID) String() string { return string(id) }
func (id TaskID) String() string   { return string(id) }

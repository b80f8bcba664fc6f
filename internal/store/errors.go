package store

import "errors"

// Sentinel errors returned by state backends. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrSyncStateNotFound is returned when no sync state is tracked for
	// the requested Notion page.
	ErrSyncStateNotFound = errors.New("sync state not found")

	// ErrNoteStateNotFound is returned when no note tracking record exists
	// for the requested Notion block.
	ErrNoteStateNotFound = errors.New("note sync state not found")

	// ErrUnsupportedDSN is returned by the backend factory when the storage
	// DSN scheme does not match any known driver.
	ErrUnsupportedDSN = errors.New("unsupported storage DSN")
)

// Low-level database operation errors. These are returned (or wrapped) by
// the SQL backend when a statement fails before any domain logic applies.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a read-only query fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan state row")
)

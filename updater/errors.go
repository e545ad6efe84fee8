package updater

import "errors"

var (
	// ErrValidationFailed wraps the first validation error of a batch update.
	ErrValidationFailed = errors.New("record validation failed")

	// ErrEmptyWhereClause is returned when an UPDATE would run without a row condition.
	ErrEmptyWhereClause = errors.New("batchupdate: empty WHERE clause")

	// ErrExecution wraps driver errors raised while running a statement.
	ErrExecution = errors.New("statement execution failed")

	// ErrUnknownColumn is returned when the column allow-list names a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotStructPointer is returned by NewStructRecord for anything but a non-nil pointer to a struct.
	ErrNotStructPointer = errors.New("record target must be a non-nil pointer to a struct")
)

package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Errors returned by the repositories. Handlers map them to HTTP statuses.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateName     = errors.New("name already exists")
	ErrDuplicateISBN     = errors.New("a book with this ISBN already exists")
	ErrInvalidReference  = errors.New("referenced record does not exist")
	ErrCategoryInUse     = errors.New("category still has items")
	ErrGenreInUse        = errors.New("genre is still assigned to books")
	ErrBookOnLoan        = errors.New("book is currently on loan")
	ErrReferenced        = errors.New("record is still referenced by other records")
	ErrInvalidTransition = errors.New("record is not in a state that allows this change")
	ErrAlreadyBooked     = errors.New("a booking already exists for this date and shift")
	ErrSlotUnavailable   = errors.New("not enough capacity")
	ErrEventNotOpen      = errors.New("event is not open for booking")
	ErrApplicationExists = errors.New("a pending or verified application already exists")
	ErrAlreadyMember     = errors.New("visitor is already a member")
)

// NotFound converts gorm's not-found error into ErrNotFound and passes anything else through.
func NotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Driver error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	return false
}

// IsForeignKeyViolation reports whether err was caused by a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		// RESTRICT actions fail from SQLite's FK trigger, not the FK check.
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey ||
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintTrigger &&
				strings.Contains(sqliteErr.Error(), "FOREIGN KEY"))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlRowIsReferenced || mysqlErr.Number == mysqlNoReferencedRow
	}

	return false
}

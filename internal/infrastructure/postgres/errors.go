package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgErrorCode(err error) string {
	var postgresErr *pgconn.PgError

	if errors.As(err, &postgresErr) {
		return postgresErr.Code
	}

	return ""
}

func isDuplicateKey(err error) bool {
	return pgErrorCode(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == codeForeignKeyViolation
}

// classifyTxError maps lock contention and constraint races to ErrConflict
// and numeric overflow to ErrAmountOutOfRange.
func classifyTxError(err error) error {
	switch pgErrorCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeCheckViolation:
		return errors.Join(repositoryErrors.ErrConflict, err)
	case codeNumericOutOfRange:
		return errors.Join(repositoryErrors.ErrAmountOutOfRange, err)
	default:
		return err
	}
}

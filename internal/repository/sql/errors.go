package sql

import (
	"errors"

	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgreSQL codes reported to clients as rejected data. See https://www.postgresql.org/docs/16/errcodes-appendix.html
const (
	pqNotNullViolationErrCode  = "23502"
	pqUniqueViolationErrCode   = "23505"
	pqCheckViolationErrCode    = "23514"
	pqStringTooLongErrCode     = "22001"
	pqNumericOutOfRangeErrCode = "22003"
)

// asConstraintViolation maps integrity errors of either driver to
// *repository.ConstraintViolationError and returns other errors unchanged.
func asConstraintViolation(err error) error {
	var code, detail string

	var pgError *pgconn.PgError
	var pqError *pq.Error
	switch {
	case errors.As(err, &pgError):
		code, detail = pgError.Code, pgError.Message
		if pgError.Detail != "" {
			detail += ": " + pgError.Detail
		}
	case errors.As(err, &pqError):
		code, detail = string(pqError.Code), pqError.Message
		if pqError.Detail != "" {
			detail += ": " + pqError.Detail
		}
	default:
		return err
	}

	switch code {
	case pqNotNullViolationErrCode, pqUniqueViolationErrCode, pqCheckViolationErrCode,
		pqStringTooLongErrCode, pqNumericOutOfRangeErrCode:
		return &repository.ConstraintViolationError{Code: code, Detail: detail}
	default:
		return err
	}
}

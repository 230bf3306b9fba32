package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ErrorClassification int

const (
	NonRetriable ErrorClassification = iota
	Retriable

	ErrIsExistCode = "23505"
)

type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify accepts both pgx and lib/pq errors.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetriable
	}

	if code, ok := sqlState(err); ok {
		return classifyCode(code)
	}

	return NonRetriable
}

func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}

	return "", false
}

// isUniqueViolation reports a 23505 from either driver.
func isUniqueViolation(err error) bool {
	code, ok := sqlState(err)
	return ok && code == ErrIsExistCode
}

func classifyCode(code string) ErrorClassification {
	// https://www.postgresql.org/docs/current/errcodes-appendix.html
	switch code {
	// class 08, connection exception
	case "08000", "08001", "08003", "08004", "08006", "08007":
		return Retriable

	// class 40, transaction rollback
	case "40000", "40001", "40P01":
		return Retriable

	// class 57, operator intervention
	case "57P03":
		return Retriable
	}

	return NonRetriable
}

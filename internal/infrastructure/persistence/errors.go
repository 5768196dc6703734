package persistence

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pq error code for unique_violation
const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
// The insert-then-catch contract on payments, invoices and refunds depends
// on recognising this across PostgreSQL and the sqlite test driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

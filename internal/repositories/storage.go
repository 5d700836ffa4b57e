package repositories

import (
	"strings"

	"TradeTrainer/internal/trainerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate applies a row-level exclusive lock on dialects that support it.
// SQLite serializes writers at the database level, so the clause is skipped
// there instead of producing a syntax error.
func forUpdate(db *gorm.DB, table string) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{
		Strength: "UPDATE",
		Table:    clause.Table{Name: table},
	})
}

// mapStorageErr translates driver-level contention into the retryable Busy
// kind; everything else passes through untouched.
func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") {
		return trainerr.Wrap(trainerr.Busy, err, "storage contention")
	}
	return err
}

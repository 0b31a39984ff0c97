package database

import (
	"fmt"
	"log"
	"strings"

	"facilityhub/internal/domain"
	"facilityhub/internal/repository"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

const overlapConstraint = "booking_requests_no_overlap"

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func Connect(dsn string) (*gorm.DB, error) {
	if IsPostgres(dsn) {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}),
		&gorm.Config{},
	)
}

// sqliteDSN makes transactions take the write lock at BEGIN and wait for it,
// instead of failing with SQLITE_BUSY when a read lock cannot be upgraded.
// Options already present in dsn win.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Migrate creates the schema. On PostgreSQL it also installs the exclusion
// constraint that rejects overlapping active bookings of one resource.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(repository.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return ensureOverlapConstraint(db)
}

func ensureOverlapConstraint(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("btree_gist: %w", err)
	}

	var exists bool
	if err := db.Raw("SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)", overlapConstraint).
		Scan(&exists).Error; err != nil {
		return fmt.Errorf("lookup %s: %w", overlapConstraint, err)
	}
	if exists {
		return nil
	}
	if err := db.Exec(exclusionConstraintSQL()).Error; err != nil {
		return fmt.Errorf("create %s: %w", overlapConstraint, err)
	}
	log.Printf("migration constraint=%s created", overlapConstraint)
	return nil
}

func exclusionConstraintSQL() string {
	statuses := domain.ActiveStatusStrings()
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = "'" + s + "'"
	}
	return fmt.Sprintf(
		"ALTER TABLE booking_requests ADD CONSTRAINT %s EXCLUDE USING gist "+
			"(resource_id WITH =, tstzrange(schedule_start, schedule_end, '[)') WITH &&) "+
			"WHERE (status IN (%s))",
		overlapConstraint, strings.Join(quoted, ", "),
	)
}

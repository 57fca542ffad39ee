package database

import (
	"fmt"
	"time"

	"manualdesk/internal/logger"
	"manualdesk/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// GormConfig is shared by production and test connections.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		// ErrDuplicatedKey вместо ошибок драйвера, нужно для повтора генерации reference
		TranslateError: true,
		// manuals.current_version_id и manual_versions.manual_id ссылаются друг на друга,
		// целостность держим в транзакциях сервисов
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormlogger.New(gormWriter(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func gormWriter() gormlogger.Writer {
	l := logger.With("gorm")
	return &l
}

// Open connects to Postgres, retrying while the database is starting up.
func Open(dsn string) (*gorm.DB, error) {
	log := logger.With("database")

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		log.Info().Int("attempt", i).Int("max", connectAttempts).Msg("connecting to database")

		db, err = gorm.Open(postgres.Open(dsn), GormConfig())
		if err == nil {
			log.Info().Msg("connected to database")
			return db, nil
		}

		log.Warn().Err(err).Msg("database connection failed")
		time.Sleep(connectBackoff)
	}
	return nil, fmt.Errorf("connect to database after %d attempts: %w", connectAttempts, err)
}

// Migrate creates or updates every table of the application.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Category{},
		&models.Tag{},
		&models.Manual{},
		&models.ManualCollaborator{},
		&models.ManualVersion{},
		&models.ContentBlock{},
		&models.ReviewRequest{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ForUpdate locks the selected rows until the transaction ends.
// SQLite ignores the clause, its writers are serialised anyway.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

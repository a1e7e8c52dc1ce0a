package main

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"videotube/domain"
)

const sqlitePrefix = "sqlite://"

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Connection info string containing database name, user, port etc.
	// A "sqlite://" prefix makes it the path of a sqlite database.
	ConnectionInfo string
}

// NewDB returns a new instance of DB.
func NewDB(connectionInfo string) *DB {
	db := &DB{
		ConnectionInfo: connectionInfo,
	}
	return db
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	if db.ConnectionInfo == "" {
		return fmt.Errorf("connectionInfo required")
	}
	logMode := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if !isProd {
		logMode.Logger = logger.Default.LogMode(logger.Info)
	}
	dialector := postgres.Open(db.ConnectionInfo)
	if path, ok := strings.CutPrefix(db.ConnectionInfo, sqlitePrefix); ok {
		dialector = sqlite.Open(path)
	}
	db.Gorm, err = gorm.Open(dialector, logMode)
	if err != nil {
		return fmt.Errorf("err opening gorm connection: %w", err)
	}
	if db.isSQLite() {
		// sqlite allows a single writer, and every connection to ":memory:" is a database of its own.
		sqlDB, err := db.Gorm.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return nil
}

func (db *DB) isSQLite() bool {
	return strings.HasPrefix(db.ConnectionInfo, sqlitePrefix)
}

// models lists every table of the app, parents first.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Video{},
		&domain.Tweet{},
		&domain.Comment{},
		&domain.Like{},
		&domain.Playlist{},
		&domain.PlaylistVideo{},
		&domain.Subscription{},
	}
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *DB) error {
	return db.Gorm.AutoMigrate(models()...)
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *DB) error {
	if err := db.Gorm.Migrator().DropTable(models()...); err != nil {
		return err
	}
	return AutoMigrate(db)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDb, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

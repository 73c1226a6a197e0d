package repository

import (
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const dbFileName = "shipci.db"

// NewSQLiteDB opens (or creates) the service database under dataDir
// and migrates the schema.
func NewSQLiteDB(dataDir string) (*gorm.DB, error) {
	return open(filepath.Join(dataDir, dbFileName))
}

// NewMemoryDB opens an in-process database, used by tests.
func NewMemoryDB() (*gorm.DB, error) {
	return open(":memory:")
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Repository{}, &Run{}); err != nil {
		return nil, err
	}
	return db, nil
}

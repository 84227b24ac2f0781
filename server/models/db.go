package models

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/leadbasehq/leadbase/server/logger"
	"github.com/leadbasehq/leadbase/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "leadbase.db"

var logg = logger.NewLogger()
var db *gorm.DB

// InitializeDb opens the encrypted sqlite db, migrates the schema
// & inserts seed data.
func InitializeDb(passPhrase string, dbRootDir string) error {
	err := openDB(passPhrase, dbRootDir)
	if err != nil {
		return err
	}

	db.AutoMigrate(
		&Workspace{}, &Role{}, &JobStatus{}, &Job{},
		&User{}, &MessageSetting{},
		&Contact{}, &PhoneNumber{}, &Property{}, &ContactProperty{},
		&Message{}, &PropertyStatusChange{}, &MessageAnalytic{},
		&ImportBatch{},
	)

	populateDBWithSeedData()

	return nil
}

// InitializeTestDb points the package at a throw-away encrypted sqlite db.
// Each call starts from a clean schema.
func InitializeTestDb() {
	dbRootDir := filepath.Join(os.TempDir(), fmt.Sprintf("leadbase-test-%v", time.Now().UnixNano()))

	if err := os.MkdirAll(dbRootDir, 0755); err != nil {
		logg.Panic(err)
	}

	if err := InitializeDb("test-passphrase", dbRootDir); err != nil {
		logg.Panic(err)
	}
}

// Transaction runs 'fn' inside a single db transaction, rolling back
// all of its writes if 'fn' returns an error.
func Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

func DbFilePath(dbRootDir string) (string, error) {
	dbDir, err := dbDirectory(dbRootDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dbDir, DB_NAME), nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func openDB(passPhrase string, dbRootDir string) error {
	var err error
	var dbDSNVal string

	dbDSNVal, err = dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err = gorm.Open(sqliteEncrypt.Open(dbDSNVal), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %v", err)
	}

	return nil
}

func populateDBWithSeedData() {
	if err := db.First(&Workspace{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'Workspace'")
		db.Create(&Workspace{Name: "default"})
	}

	if err := db.First(&Role{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'Role'")
		db.Create(&[]Role{{Name: "admin"}, {Name: "basic"}})
	}

	if err := db.First(&JobStatus{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'JobStatus'")
		db.Create(&[]JobStatus{{Name: ENQUEUED_JOB}, {Name: IN_PROGRESS_JOB}, {Name: SUCCESSFUL_JOB}, {Name: DEAD_JOB}})
	}
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	dbFilePath, err := DbFilePath(dbRootDir)
	if err != nil {
		return "", err
	}

	dbName := fmt.Sprintf("file:%v", dbFilePath)

	return fmt.Sprintf(
		"%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbName,
		passPhrase,
	), nil
}

func dbDirectory(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

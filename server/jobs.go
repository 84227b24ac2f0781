package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/leadbasehq/leadbase/server/gstorage"
	"github.com/leadbasehq/leadbase/server/importer"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/leadbasehq/leadbase/server/work"
)

const (
	IMPORT_BATCH_HANDLER      = "processImportBatch"
	ANALYTICS_ROLLUP_HANDLER  = "rollupMessageAnalytics"
	SQLITE_BACKUP_HANDLER     = "backupSqliteDb"
	ANALYTICS_ROLLUP_SCHEDULE = "5 0 * * *"
	IMPORT_TIMEOUT_IN_MINUTES = 30
)

// processImportBatch reads the uploaded csv off disk & reconciles each
// row against the batch's workspace. The final tally and status land on
// the batch record, so clients can poll for it.
func processImportBatch(args map[string]interface{}) error {
	batchID, ok := args["batch_id"].(float64)
	if !ok {
		return fmt.Errorf("processImportBatch: invalid batch_id %v", args["batch_id"])
	}

	batch, err := models.FindImportBatchByID(uint(batchID))
	if err != nil {
		return err
	}

	err = batch.Update(map[string]interface{}{"status": models.RUNNING_IMPORT})
	if err != nil {
		return err
	}

	file, err := os.Open(batch.FilePath)
	if err != nil {
		failImportBatch(batch, err)
		return err
	}
	defer file.Close()

	rows, err := importer.ReadRows(file)
	if err != nil {
		failImportBatch(batch, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), IMPORT_TIMEOUT_IN_MINUTES*time.Minute)
	defer cancel()

	tally := csvImporter.Run(ctx, batch.WorkspaceID, rows)

	return batch.Update(map[string]interface{}{
		"status":             models.COMPLETED_IMPORT,
		"properties_new":     tally.Properties.New,
		"properties_updated": tally.Properties.Updated,
		"contacts_new":       tally.Contacts.New,
		"contacts_updated":   tally.Contacts.Updated,
		"relationships":      tally.Relationships,
		"errors":             tally.Errors,
	})
}

// rollupMessageAnalytics folds yesterday's message counts into one
// analytics row per workspace. Runs shortly after midnight.
func rollupMessageAnalytics(map[string]interface{}) error {
	workspaces, err := models.AllWorkspaces()
	if err != nil {
		return err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, workspace := range workspaces {
		sent, responses, err := models.MessageCountsForDay(workspace.ID, dayStart, dayEnd)
		if err != nil {
			return err
		}

		err = models.UpsertMessageAnalytic(workspace.ID, dayStart.Format("2006-01-02"), sent, responses)
		if err != nil {
			return err
		}
	}

	return nil
}

func backupSqliteDb(map[string]interface{}) error {
	gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
	if err != nil {
		return err
	}

	dbFilePath, err := models.DbFilePath(appDataDir)
	if err != nil {
		return err
	}

	return gs.UploadFile(serverConfig.Google.Storage.Bucket, serverConfig.Google.Storage.Prefix, dbFilePath)
}

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	wpa.Register(IMPORT_BATCH_HANDLER, processImportBatch)
	wpa.Register(ANALYTICS_ROLLUP_HANDLER, rollupMessageAnalytics)
	wpa.Register(SQLITE_BACKUP_HANDLER, backupSqliteDb)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter) {
	wpa.PeriodicallyPerform(ANALYTICS_ROLLUP_SCHEDULE, work.JobParams{
		Name:    ANALYTICS_ROLLUP_HANDLER,
		Handler: ANALYTICS_ROLLUP_HANDLER,
		Unique:  false,
		Args:    map[string]interface{}{},
	})

	if serverConfig.Google.Storage.EnableSqliteBackupAndSync == true {
		wpa.PeriodicallyPerform(serverConfig.Google.Storage.SqliteBackupSchedule, work.JobParams{
			Name:    SQLITE_BACKUP_HANDLER,
			Handler: SQLITE_BACKUP_HANDLER,
			Unique:  false,
			Args:    map[string]interface{}{},
		})
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func failImportBatch(batch *models.ImportBatch, cause error) {
	err := batch.Update(map[string]interface{}{
		"status":     models.FAILED_IMPORT,
		"last_error": cause.Error(),
	})
	if err != nil {
		logg.Errorf("failImportBatch: %v", err)
	}
}

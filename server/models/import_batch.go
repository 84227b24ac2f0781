package models

const (
	PENDING_IMPORT   = "pending"
	RUNNING_IMPORT   = "running"
	COMPLETED_IMPORT = "completed"
	FAILED_IMPORT    = "failed"
)

// ImportBatch tracks one uploaded csv file through the job queue, along
// with the final reconciliation tally.
type ImportBatch struct {
	BaseModel
	WorkspaceID       uint   `json:"workspace_id" gorm:"not null;index"`
	FilePath          string `json:"-" gorm:"not null"`
	Status            string `json:"status" gorm:"default:pending"`
	PropertiesNew     int    `json:"properties_new"`
	PropertiesUpdated int    `json:"properties_updated"`
	ContactsNew       int    `json:"contacts_new"`
	ContactsUpdated   int    `json:"contacts_updated"`
	Relationships     int    `json:"relationships"`
	Errors            int    `json:"errors"`
	LastError         string `json:"last_error,omitempty"`
}

func CreateImportBatch(batch *ImportBatch) error {
	return db.Create(batch).Error
}

func FindImportBatch(workspaceID uint, id interface{}) (*ImportBatch, error) {
	batch := ImportBatch{}
	err := db.Scopes(workspaceScope(workspaceID)).First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

// FindImportBatchByID looks a batch up without a workspace scope, for
// use by the job queue worker.
func FindImportBatchByID(id interface{}) (*ImportBatch, error) {
	batch := ImportBatch{}
	err := db.First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

func (batch *ImportBatch) Update(data map[string]interface{}) error {
	return db.Model(batch).Updates(data).Error
}

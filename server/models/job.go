package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrDuplicateJob = errors.New("job with the given name already exists in queue")

type Job struct {
	BaseModel
	Fails       int        `json:"fails"`
	Name        string     `json:"name"`
	Handler     string     `json:"handler"`
	Args        string     `json:"args"`
	LastError   string     `json:"last_error"`
	Claimed     bool       `json:"claimed" gorm:"default:false"`
	JobStatusID uint       `json:"job_status_id"`
	JobStatus   *JobStatus `json:"status"`
}

// MarkAsClaimed flips the job to claimed/in-progress iff no other worker
// got to it first.
func (job *Job) MarkAsClaimed() (bool, error) {
	inProgressStatus, err := FindJobStatus(IN_PROGRESS_JOB)
	if err != nil {
		return false, err
	}

	res := db.Model(&Job{}).Where("id = ? AND claimed = ?", job.ID, false).Updates(map[string]interface{}{
		"claimed":       true,
		"job_status_id": inProgressStatus.ID,
	})

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (job *Job) Update(data map[string]interface{}) error {
	return db.Model(job).Updates(data).Error
}

// CreateJob enqueues a job. When 'unique' is set, an enqueued or
// in-progress job of the same name short-circuits with ErrDuplicateJob.
func CreateJob(name, handler, args string, unique bool) error {
	enqueuedStatus, err := FindJobStatus(ENQUEUED_JOB)
	if err != nil {
		return err
	}

	if unique {
		inProgressStatus, err := FindJobStatus(IN_PROGRESS_JOB)
		if err != nil {
			return err
		}

		results := db.Where("name = ? AND job_status_id IN ?",
			name, []uint{enqueuedStatus.ID, inProgressStatus.ID}).First(&Job{})

		if results.Error != nil && !errors.Is(results.Error, gorm.ErrRecordNotFound) {
			return results.Error
		}

		if results.RowsAffected > 0 {
			return ErrDuplicateJob
		}
	}

	return db.Create(&Job{
		Name:        name,
		Handler:     handler,
		Args:        args,
		JobStatusID: enqueuedStatus.ID,
	}).Error
}

// NextJob fetches the oldest unclaimed job in the given status queue.
func NextJob(status string) (*Job, error) {
	job := Job{}

	err := db.Joins(
		"INNER JOIN job_statuses ON job_statuses.id = jobs.job_status_id AND job_statuses.name = ? AND claimed = ?",
		status, false).First(&job).Error
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// RequeueStaleJobs puts claimed in-progress jobs that haven't been
// touched since 'staleBefore' back on the queue.
func RequeueStaleJobs(staleBefore time.Time) (int64, error) {
	inProgressStatus, err := FindJobStatus(IN_PROGRESS_JOB)
	if err != nil {
		return 0, err
	}

	enqueuedStatus, err := FindJobStatus(ENQUEUED_JOB)
	if err != nil {
		return 0, err
	}

	res := db.Model(&Job{}).
		Where("job_status_id = ? AND claimed = ? AND updated_at < ?", inProgressStatus.ID, true, staleBefore).
		Updates(map[string]interface{}{
			"claimed":       false,
			"job_status_id": enqueuedStatus.ID,
		})

	return res.RowsAffected, res.Error
}

package work

import (
	"bytes"
	"testing"
	"time"

	"github.com/leadbasehq/leadbase/server/models"
	"github.com/stretchr/testify/assert"
)

func TestPerformIn(t *testing.T) {
	models.InitializeTestDb()

	adapter := NewWorkerAdapter("UTC")
	outputBuffer := new(bytes.Buffer)
	outStr := outputBuffer.String()

	// Register job function
	writeToBuffer := func(m map[string]interface{}) error {
		_, err := outputBuffer.WriteString("Hello")
		return err
	}
	adapter.Register("write_to_buffer", writeToBuffer)

	err := adapter.PerformIn(2, JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)
	assert.Empty(t, outStr, "Expected outputBuffer to be empty")

	// Wait until time to perform job has elapsed
	time.Sleep(3 * time.Second)

	adapter.Start()

	// Wait for job to be processed
	time.Sleep(2 * time.Second)

	adapter.Stop()

	outStr = outputBuffer.String()
	assert.Equal(t, "Hello", outStr, "Expected job to write to outputBuffer")
}

func TestPerformDeduplicatesUniqueJobs(t *testing.T) {
	models.InitializeTestDb()

	adapter := NewWorkerAdapter("UTC")
	adapter.Register("noop", func(map[string]interface{}) error { return nil })

	job := JobParams{
		Name:    "import_batch_1",
		Handler: "noop",
		Unique:  true,
		Args:    map[string]interface{}{},
	}

	assert.Nil(t, adapter.Perform(job))
	assert.Nil(t, adapter.Perform(job), "A duplicate unique job is dropped, not an error")

	queued, err := models.NextJob(models.ENQUEUED_JOB)
	assert.Nil(t, err)
	assert.Equal(t, "import_batch_1", queued.Name)
}

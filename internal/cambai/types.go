package cambai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the state of a translation job as reported by the provider.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Terminal reports whether polling can stop.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// JobID holds a task or run identifier. The provider sends these either as
// JSON strings or as JSON numbers.
type JobID string

func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job id must be a string or number: %w", err)
	}
	*id = JobID(n.String())
	return nil
}

type submitRequest struct {
	SourceLanguage int      `json:"source_language"`
	TargetLanguage int      `json:"target_language"`
	Texts          []string `json:"texts"`
}

type submitResponse struct {
	TaskID JobID `json:"task_id"`
}

type statusResponse struct {
	Status Status `json:"status"`
	RunID  JobID  `json:"run_id"`
}

type resultResponse struct {
	Texts []string `json:"texts"`
}

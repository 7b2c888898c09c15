package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markdave123-py/Fixpress/internal/core/batch"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// Job describes one generation run, loaded from YAML.
type Job struct {
	Manual     string   `yaml:"manual" json:"manual"`
	Model      string   `yaml:"model" json:"model"`
	Status     string   `yaml:"status" json:"status"`
	DeviceType string   `yaml:"device_type" json:"device_type"`
	Errors     []string `yaml:"errors" json:"errors"`
}

// loadJob reads and validates a job file. When no errors are listed the
// device type's common errors are used.
func loadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}

	job.Manual = strings.TrimSpace(job.Manual)
	job.Model = strings.TrimSpace(job.Model)
	if job.Manual == "" || job.Model == "" {
		return nil, fmt.Errorf("job %s: manual and model are required", path)
	}

	switch strings.ToLower(strings.TrimSpace(job.Status)) {
	case "", models.StatusDraft:
		job.Status = models.StatusDraft
	case models.StatusPublish:
		job.Status = models.StatusPublish
	default:
		return nil, fmt.Errorf("job %s: status must be draft or publish, got %q", path, job.Status)
	}

	errs := make([]string, 0, len(job.Errors))
	for _, e := range job.Errors {
		if e = strings.TrimSpace(e); e != "" {
			errs = append(errs, e)
		}
	}
	if len(errs) == 0 && job.DeviceType != "" {
		errs = batch.CommonErrors(job.DeviceType)
		if errs == nil {
			return nil, fmt.Errorf("job %s: unknown device_type %q", path, job.DeviceType)
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("job %s: no errors and no device_type", path)
	}
	job.Errors = errs

	return &job, nil
}

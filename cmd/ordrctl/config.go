package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/casperin/ordr/internal/fsutil"
)

// runConfig is ordrctl's own run configuration: concurrency cap, log level,
// the job file to build, and where to read/write resume snapshots. None of
// this belongs to the core engine; it exists only because a CLI needs
// somewhere to get its settings from.
type runConfig struct {
	JobFile        string
	ConcurrencyCap int64
	LogLevel       string
	ResumeFrom     string
	SnapshotOut    string
	EventsURL      string
}

// loadConfig layers defaults, an optional .env file, and ORDRCTL_-prefixed
// environment variables into a runConfig, the way kbukum-gokit's services
// configure themselves.
func loadConfig(args []string) (runConfig, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return runConfig{}, fmt.Errorf("ordrctl: load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("ORDRCTL")
	v.AutomaticEnv()
	v.SetDefault("job_file", "job.hcl")
	v.SetDefault("concurrency_cap", int64(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("snapshot_out", "ordr.snapshot")

	if len(args) > 0 {
		v.Set("job_file", args[0])
	}

	jobFile := v.GetString("job_file")
	if _, err := os.Stat(jobFile); err != nil {
		if found, ok := findJobFile("."); ok {
			jobFile = found
		}
	}

	return runConfig{
		JobFile:        jobFile,
		ConcurrencyCap: v.GetInt64("concurrency_cap"),
		LogLevel:       v.GetString("log_level"),
		ResumeFrom:     v.GetString("resume_from"),
		SnapshotOut:    v.GetString("snapshot_out"),
		EventsURL:      v.GetString("events_url"),
	}, nil
}

// findJobFile searches root recursively for *.hcl files when the configured
// job file does not exist and returns the first one found, so ordrctl can be
// run from a job's own directory without spelling out its name.
func findJobFile(root string) (string, bool) {
	matches, err := fsutil.FindFilesByExtension(root, ".hcl")
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

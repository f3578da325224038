package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/moviecp/internal/flagx"
	"github.com/dmitrijs2005/moviecp/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration. Pointer fields distinguish "absent" from
// "zero value" so a partial file only overrides what it mentions.
type JsonConfig struct {
	EndpointAddr *string `json:"endpoint_addr"`
	DatabaseDSN  *string `json:"database_dsn"`

	WatchDir            *string         `json:"watch_dir"`
	WatchRecursive      *bool           `json:"watch_recursive"`
	MinFileSize         *int64          `json:"min_file_size"`
	StableInterval      *timex.Duration `json:"stable_interval"`
	SupportedExtensions []string        `json:"supported_extensions"`
	ExcludePatterns     []string        `json:"exclude_patterns"`
	WorkerCount         *int            `json:"worker_count"`

	MountPath    *string `json:"mount_path"`
	TargetFolder *string `json:"target_folder"`
	VerifyMount  *bool   `json:"verify_mount"`

	RenamerPath      *string         `json:"renamer_path"`
	RenamerBatchMode *bool           `json:"renamer_batch_mode"`
	RenamerMediaType *string         `json:"renamer_media_type"`
	RenamerFormat    *string         `json:"renamer_format"`
	RenamerExtraArgs []string        `json:"renamer_extra_args"`
	RenamerTimeout   *timex.Duration `json:"renamer_timeout"`

	VersioningEnabled   *bool    `json:"versioning_enabled"`
	VersionFormat       *string  `json:"version_format"`
	CheckSimilar        *bool    `json:"check_similar"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics (configuration errors are fatal
// at startup).
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.WatchDir != nil {
		config.WatchDir = *c.WatchDir
	}
	if c.WatchRecursive != nil {
		config.WatchRecursive = *c.WatchRecursive
	}
	if c.MinFileSize != nil {
		config.MinFileSize = *c.MinFileSize
	}
	if c.StableInterval != nil {
		config.StableInterval = time.Duration(c.StableInterval.Duration)
	}
	if c.SupportedExtensions != nil {
		config.SupportedExtensions = c.SupportedExtensions
	}
	if c.ExcludePatterns != nil {
		config.ExcludePatterns = c.ExcludePatterns
	}
	if c.WorkerCount != nil {
		config.WorkerCount = *c.WorkerCount
	}
	if c.MountPath != nil {
		config.MountPath = *c.MountPath
	}
	if c.TargetFolder != nil {
		config.TargetFolder = *c.TargetFolder
	}
	if c.VerifyMount != nil {
		config.VerifyMount = *c.VerifyMount
	}
	if c.RenamerPath != nil {
		config.RenamerPath = *c.RenamerPath
	}
	if c.RenamerBatchMode != nil {
		config.RenamerBatchMode = *c.RenamerBatchMode
	}
	if c.RenamerMediaType != nil {
		config.RenamerMediaType = *c.RenamerMediaType
	}
	if c.RenamerFormat != nil {
		config.RenamerFormat = *c.RenamerFormat
	}
	if c.RenamerExtraArgs != nil {
		config.RenamerExtraArgs = c.RenamerExtraArgs
	}
	if c.RenamerTimeout != nil {
		config.RenamerTimeout = time.Duration(c.RenamerTimeout.Duration)
	}
	if c.VersioningEnabled != nil {
		config.VersioningEnabled = *c.VersioningEnabled
	}
	if c.VersionFormat != nil {
		config.VersionFormat = *c.VersionFormat
	}
	if c.CheckSimilar != nil {
		config.CheckSimilar = *c.CheckSimilar
	}
	if c.SimilarityThreshold != nil {
		config.SimilarityThreshold = *c.SimilarityThreshold
	}
}

// Package options provides data structures and functions for configuring
// the Ignite database. It defines the parameters that control Ignite's
// storage behavior, performance, and maintenance operations: directory
// paths, compaction scheduling, and worker-pool sizing. It deliberately does
// NOT expose the segment cap or segment naming scheme as configuration:
// those are part of the on-disk format (spec-level contract), and an
// implementation that let them vary could write files a differently
// configured instance of itself could not read back.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for the segment subdirectory.
type segmentOptions struct {
	// Specifies the subdirectory, under DataDir, where segment files live.
	//
	// Default: "segments"
	Directory string `json:"directory"`
}

// Defines the configuration parameters for Ignite DB.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Defines how often the periodic recompaction sweep runs, resubmitting
	// every sealed segment to the compactor pool to catch stale tombstone
	// ratios that rotation alone did not trigger.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// Configures the segment subdirectory.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// Number of long-lived workers in the compactor's dedicated pool.
	//
	// Default: 2
	CompactionWorkers int `json:"compactionWorkers"`

	// Maximum number of sealed segments that may be queued for compaction
	// before Spawn starts returning a queue-full error (logged, not fatal).
	//
	// Default: 64
	CompactionQueueSize int `json:"compactionQueueSize"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactInterval = opts.CompactInterval
		o.CompactionWorkers = opts.CompactionWorkers
		o.CompactionQueueSize = opts.CompactionQueueSize
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which Ignite performs periodic recompaction.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// Sets the directory specifically for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the number of workers in the compactor's dedicated pool.
func WithCompactionWorkers(workers int) OptionFunc {
	return func(o *Options) {
		if workers > 0 {
			o.CompactionWorkers = workers
		}
	}
}

// Sets the capacity of the compactor's job queue.
func WithCompactionQueueSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.CompactionQueueSize = size
		}
	}
}

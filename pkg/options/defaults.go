package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default time duration between periodic recompaction sweeps.
	DefaultCompactInterval = time.Hour * 5

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "segments"

	// Default size of the compactor's dedicated worker pool.
	DefaultCompactionWorkers = 2

	// Default capacity of the compactor's job queue.
	DefaultCompactionQueueSize = 64

	// SegmentCap is the on-disk format's segment size cap in bytes. It is a
	// format constant, not a tuning knob: an implementation that changes it
	// cannot read files written by one that didn't.
	SegmentCap = 4_000_000
)

// NewDefaultOptions returns a fresh Options value with every field at its
// default. SegmentOptions is allocated anew on each call so that one
// instance's WithSegmentDir does not mutate another's.
func NewDefaultOptions() Options {
	return Options{
		DataDir:             DefaultDataDir,
		CompactInterval:     DefaultCompactInterval,
		CompactionWorkers:   DefaultCompactionWorkers,
		CompactionQueueSize: DefaultCompactionQueueSize,
		SegmentOptions: &segmentOptions{
			Directory: DefaultSegmentDirectory,
		},
	}
}

// Package seginfo names, discovers, and addresses the log segment files a
// storage directory is made of.
//
// Filename format: kv_<N>.log
//
// Where N is a positive, decimal integer with no required zero-padding. The
// segment with the highest N is the active segment; every other kv_*.log
// file in the directory is sealed. A compaction in progress additionally
// produces a temp file alongside the segment it is rewriting:
//
//	kv_7.log        the sealed segment, being compacted
//	_tmp_kv_7.log   its replacement, not yet renamed into place
//
// A _tmp_kv_<N>.log file found on open is debris from a compaction that
// crashed after writing its replacement but before the rename; it is
// discarded rather than trusted, since the segment it would have replaced is
// still intact.
//
// Example filenames:
//
//	kv_1.log
//	kv_2.log
//	kv_42.log
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// Prefix is the fixed segment filename prefix.
	Prefix = "kv"
	// Extension is the fixed segment filename extension; only files bearing
	// it are considered by Scan.
	Extension = "log"
	// tmpPrefix marks a file as an in-progress compaction replacement.
	tmpPrefix = "_tmp_"
)

// Path returns the file path of segment idx inside dir.
func Path(dir string, idx uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.%s", Prefix, idx, Extension))
}

// TmpPath returns the path of the temp file a compaction of segment idx
// writes before atomically renaming it over Path(dir, idx).
func TmpPath(dir string, idx uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%skv_%d.%s", tmpPrefix, idx, Extension))
}

// ParseIndex extracts N from a kv_<N>.log filename. It returns ok=false for
// any name that does not match the exact format, including temp files,
// non-.log files, and malformed or non-numeric stems.
func ParseIndex(filename string) (idx uint64, ok bool) {
	if strings.HasPrefix(filename, tmpPrefix) {
		return 0, false
	}

	ext := filepath.Ext(filename)
	if strings.TrimPrefix(ext, ".") != Extension {
		return 0, false
	}

	stem := strings.TrimSuffix(filename, ext)
	rest, found := strings.CutPrefix(stem, Prefix+"_")
	if !found {
		return 0, false
	}

	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Scan reads dir and returns every segment index present, sorted ascending.
// Entries that are not directories-of-interest (non-.log files, temp files,
// malformed stems) are skipped; a warning is logged for any .log file whose
// stem could not be parsed, since that indicates an unexpected file sharing
// the storage directory.
func Scan(dir string, log *zap.SugaredLogger) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("seginfo: reading directory %s: %w", dir, err)
	}

	indices := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) != "."+Extension {
			continue
		}

		idx, ok := ParseIndex(name)
		if !ok {
			if log != nil {
				log.Warnw("skipping unrecognized file in segment directory", "name", name)
			}
			continue
		}
		indices = append(indices, idx)
	}

	slices.Sort(indices)
	return indices, nil
}

// RemoveTempDebris deletes every _tmp_kv_*.log file in dir, logging each
// removal. It is called once on open, before replay, so a compaction that
// crashed mid-write never gets mistaken for a real segment.
func RemoveTempDebris(dir string, log *zap.SugaredLogger) error {
	pattern := filepath.Join(dir, tmpPrefix+Prefix+"_*."+Extension)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("seginfo: globbing temp files in %s: %w", dir, err)
	}

	for _, match := range matches {
		if log != nil {
			log.Warnw("removing leftover compaction temp file", "path", match)
		}
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("seginfo: removing temp file %s: %w", match, err)
		}
	}
	return nil
}

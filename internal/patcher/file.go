package patcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"jsxpatch/internal/config"
	"jsxpatch/pkg/digest"
)

// File errors.
var (
	// ErrNoMatch is returned when a rule finds nothing and the policy is "error".
	ErrNoMatch = errors.New("pattern not found")
	// ErrBackupExists is returned instead of overwriting an earlier backup.
	ErrBackupExists = errors.New("backup already exists")
)

// BackupSuffix is appended to the target path when a backup is requested.
const BackupSuffix = ".bak"

// Status values reported for a file.
const (
	StatusPatched    = "patched"
	StatusWouldPatch = "would-patch"
	StatusNoMatch    = "no-match"
	StatusSkipped    = "skipped"
)

// FileOptions controls how a rule is applied to a file.
type FileOptions struct {
	OnNoMatch    string
	ExpectSHA256 string
	Backup       bool
	DryRun       bool
}

// FileResult describes what happened to one file.
type FileResult struct {
	Recipe     string
	Path       string
	BackupPath string
	BeforeHash string
	AfterHash  string
	Matches    int
	Skipped    bool
	Written    bool
	DryRun     bool
}

// Status returns the one-word outcome.
func (r *FileResult) Status() string {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Matches == 0:
		return StatusNoMatch
	case r.DryRun:
		return StatusWouldPatch
	default:
		return StatusPatched
	}
}

// PatchFile reads path, applies rule and writes the result back in place.
// Nothing is written unless the rule matched. A symlinked path is patched
// through the link: the file it points to is rewritten and the link stays.
func PatchFile(path string, rule *Rule, opts FileOptions) (*FileResult, error) {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat target: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("target %s is a directory", path)
	}

	data, err := os.ReadFile(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read target: %w", err)
	}

	original := string(data)

	if opts.ExpectSHA256 != "" {
		if err := digest.Verify(original, opts.ExpectSHA256); err != nil {
			return nil, fmt.Errorf("target %s: %w", path, err)
		}
	}

	res := rule.Apply(original)

	result := &FileResult{
		Recipe:     rule.Name,
		Path:       path,
		BeforeHash: digest.Sum(original),
		AfterHash:  digest.Sum(res.Content),
		Matches:    res.Matches,
		Skipped:    res.Skipped,
		DryRun:     opts.DryRun,
	}

	if res.Skipped {
		return result, nil
	}

	if res.Matches == 0 {
		if opts.OnNoMatch == config.OnNoMatchError {
			return result, fmt.Errorf("%w: %s in %s", ErrNoMatch, rule.Pattern, path)
		}

		return result, nil
	}

	backupPath := realPath + BackupSuffix
	if opts.Backup {
		if _, err := os.Lstat(backupPath); err == nil {
			return result, fmt.Errorf("%w: %s", ErrBackupExists, backupPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("failed to check backup: %w", err)
		}
	}

	if opts.DryRun {
		return result, nil
	}

	if opts.Backup {
		result.BackupPath = backupPath
		if err := writeAtomic(backupPath, data, info.Mode().Perm()); err != nil {
			return result, fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := writeAtomic(realPath, []byte(res.Content), info.Mode().Perm()); err != nil {
		return result, fmt.Errorf("failed to write target: %w", err)
	}

	result.Written = true

	return result, nil
}

// writeAtomic replaces path with data via a synced temp file in the same
// directory, so readers see either the old or the new content.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}

	if err = tmp.Sync(); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

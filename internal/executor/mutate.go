package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"medley/internal/fileutil"
	"medley/internal/services"
)

// MutateOptions tunes the safety checks around one destructive operation.
type MutateOptions struct {
	// KeepBackup retains the backup copy after a successful mutation.
	KeepBackup bool
	// MinSizeRatio rejects output smaller than this fraction of the
	// original, catching truncated tool output. Zero only requires a
	// non-empty file.
	MinSizeRatio float64
}

// MutateFn writes the new version of the file to tmpPath. It must not touch
// the original.
type MutateFn func(ctx context.Context, tmpPath string) error

// MutateFile performs one destructive file operation safely: acquire the
// per-file lock, back the file up, let fn write a replacement to a temp file
// in the same directory, verify the output, then atomically rename it over
// the target. Any failure restores the backup before returning, so no
// partial output is ever left as the visible file.
func MutateFile(ctx context.Context, target string, opts MutateOptions, fn MutateFn) (backupPath string, err error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "executor", "mutate",
			fmt.Sprintf("stat %s", target), err)
	}
	originalSize := info.Size()

	dir := filepath.Dir(target)
	if err := checkFreeSpace(dir, originalSize); err != nil {
		return "", err
	}

	lock, err := AcquireFileLock(ctx, target)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.Release() }()

	backupPath = target + ".bak"
	if err := fileutil.CopyFileVerified(target, backupPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "executor", "mutate",
			fmt.Sprintf("backup %s", target), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return backupPath, services.Wrap(services.ErrExternalTool, "executor", "mutate",
			"create temp file", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	fail := func(cause error) (string, error) {
		_ = os.Remove(tmpPath)
		if restoreErr := restoreBackup(backupPath, target); restoreErr != nil {
			return backupPath, services.Wrap(services.ErrExternalTool, "executor", "mutate",
				fmt.Sprintf("restore backup after failure (%v)", cause), restoreErr)
		}
		return backupPath, cause
	}

	if err := fn(ctx, tmpPath); err != nil {
		return fail(services.Wrap(services.ErrExternalTool, "executor", "mutate",
			fmt.Sprintf("mutate %s", target), err))
	}

	if err := verifyOutput(tmpPath, originalSize, opts.MinSizeRatio); err != nil {
		return fail(err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fail(services.Wrap(services.ErrExternalTool, "executor", "mutate",
			fmt.Sprintf("replace %s", target), err))
	}

	if !opts.KeepBackup {
		_ = os.Remove(backupPath)
		backupPath = ""
	}
	return backupPath, nil
}

// verifyOutput rejects empty or implausibly small tool output before it
// replaces the original.
func verifyOutput(path string, originalSize int64, minRatio float64) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "executor", "verify",
			fmt.Sprintf("stat output %s", path), err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "executor", "verify",
			"tool produced an empty file", nil)
	}
	if minRatio > 0 && originalSize > 0 {
		floor := int64(float64(originalSize) * minRatio)
		if info.Size() < floor {
			return services.Wrap(services.ErrExternalTool, "executor", "verify",
				fmt.Sprintf("output %d bytes is below %d (%.0f%% of original)",
					info.Size(), floor, minRatio*100), nil)
		}
	}
	return nil
}

func restoreBackup(backupPath, target string) error {
	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("backup %s is empty", backupPath)
	}
	return fileutil.CopyFileVerified(backupPath, target)
}

// checkFreeSpace requires room for the backup copy plus the temp output.
func checkFreeSpace(dir string, needed int64) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		// Exotic filesystems may not support statfs; skip the check.
		return nil
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < needed*2 {
		return services.Wrap(services.ErrValidation, "executor", "mutate",
			fmt.Sprintf("insufficient free space in %s: %d bytes available, %d required",
				dir, available, needed*2), nil)
	}
	return nil
}

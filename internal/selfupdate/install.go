package selfupdate

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// install replaces the executable at target with binary. The new file is
// staged next to target so the final rename stays on one filesystem.
func install(binary []byte, target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	staged, err := stage(binary, filepath.Dir(target))
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(staged) }()

	if err := os.Chmod(staged, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	// A running executable cannot be overwritten on Windows, but it can be
	// renamed out of the way.
	if runtime.GOOS == "windows" {
		old := target + ".old"
		_ = os.Remove(old)
		if err := os.Rename(target, old); err != nil {
			return fmt.Errorf("move current executable aside: %w", err)
		}
	}
	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

// stage writes binary to a temp file in dir and confirms the bytes on disk
// hash the same as the bytes extracted.
func stage(binary []byte, dir string) (string, error) {
	f, err := os.CreateTemp(dir, ".mockexam-update-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	name := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}

	if _, err := f.Write(binary); err != nil {
		return fail(fmt.Errorf("write staging file: %w", err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("sync staging file: %w", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fail(fmt.Errorf("reread staging file: %w", err))
	}
	want := sha256.Sum256(binary)
	if !bytes.Equal(h.Sum(nil), want[:]) {
		return fail(fmt.Errorf("%w: staged executable differs from the release", ErrChecksum))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return name, nil
}

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrDevBuild is returned for builds without a release version.
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
)

// Stage names a step of an update, in the order they run.
type Stage string

const (
	StageCheck    Stage = "check"
	StageDownload Stage = "download"
	StageVerify   Stage = "verify"
	StageExtract  Stage = "extract"
	StageInstall  Stage = "install"
	StageDone     Stage = "done"
)

// UpdateInput selects the update. An empty TargetVersion means the latest
// release.
type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

// UpdateProgress reports one stage of an update.
type UpdateProgress struct {
	Stage   Stage
	Message string
}

// checksumsFile is published next to the archives of every release.
const checksumsFile = "checksums.txt"

// maxDownloadSize bounds any single release download.
const maxDownloadSize = 256 << 20

// release is one tagged build of mockexam for the running platform.
type release struct {
	tag     string
	archive archive
}

// Update downloads the target release (the latest by default), verifies it
// against the release checksums and replaces the running executable.
// progress may be nil.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if input.CurrentVersion == "(devel)" || canonical(input.CurrentVersion) == "" {
		return ErrDevBuild
	}
	report := func(stage Stage, format string, args ...any) {
		if progress != nil {
			progress(UpdateProgress{Stage: stage, Message: fmt.Sprintf(format, args...)})
		}
	}

	rel, err := c.resolveRelease(ctx, input, report)
	if err != nil {
		return err
	}

	report(StageDownload, "Downloading mockexam %s...", rel.tag)
	data, err := c.fetch(ctx, rel.tag, rel.archive.name)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	report(StageVerify, "Verifying %s...", rel.archive.name)
	if err := c.verifyRelease(ctx, rel, data); err != nil {
		return err
	}

	report(StageExtract, "Unpacking %s...", rel.archive.binary)
	binary, err := rel.archive.extract(data)
	if err != nil {
		return fmt.Errorf("extract binary: %w", err)
	}

	report(StageInstall, "Installing...")
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := install(binary, target); err != nil {
		return fmt.Errorf("install update: %w", err)
	}

	report(StageDone, "mockexam is now at %s", rel.tag)
	return nil
}

// resolveRelease picks the tag to install and the archive for this platform.
func (c *Checker) resolveRelease(ctx context.Context, input *UpdateInput, report func(Stage, string, ...any)) (release, error) {
	tag := input.TargetVersion
	if tag == "" {
		report(StageCheck, "Looking for a newer release...")
		result, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return release{}, fmt.Errorf("check for updates: %w", err)
		}
		if !result.UpdateAvailable {
			return release{}, ErrAlreadyLatest
		}
		tag = result.LatestVersion
	}

	a, err := hostArchive()
	if err != nil {
		return release{}, err
	}
	return release{tag: tag, archive: a}, nil
}

// verifyRelease checks data against the digest the release publishes for
// its archive.
func (c *Checker) verifyRelease(ctx context.Context, rel release, data []byte) error {
	sums, err := c.fetch(ctx, rel.tag, checksumsFile)
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, ok := parseChecksums(sums)[rel.archive.name]
	if !ok {
		return fmt.Errorf("%w: %s lists no digest for %s", ErrChecksum, checksumsFile, rel.archive.name)
	}
	return verifyChecksum(data, want)
}

// fetch downloads one asset of the tagged release.
func (c *Checker) fetch(ctx context.Context, tag, file string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
		strings.TrimRight(c.downloadBaseURL, "/"), c.owner, c.repo, tag, file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", file, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("GET %s: larger than %d bytes", file, maxDownloadSize)
	}
	return data, nil
}

package selfupdate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishedRelease reports latest as the newest release and serves files by
// path. Anything else gets a 404.
func publishedRelease(t *testing.T, latest string, files map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/abhisek/mockexam/releases/latest" {
			fmt.Fprintf(w, `{"tag_name":%q,"html_url":"https://example.com/%s"}`, latest, latest)
			return
		}
		if data, ok := files[r.URL.Path]; ok {
			_, _ = w.Write(data)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server
}

// tarRelease skips on platforms whose release asset is a zip.
func tarRelease(t *testing.T) archive {
	t.Helper()
	a, err := hostArchive()
	if err != nil {
		t.Skipf("no release for this platform: %v", err)
	}
	if a.zip {
		t.Skip("fixtures are tar.gz")
	}
	return a
}

func TestUpdate(t *testing.T) {
	newBinary := []byte("mockexam v2.0.0")
	data := buildTarGz(t, "mockexam", newBinary)
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	const dl = "/abhisek/mockexam/releases/download/v2.0.0/"

	t.Run("installs the latest release", func(t *testing.T) {
		a := tarRelease(t)
		execPath := filepath.Join(t.TempDir(), "mockexam")
		require.NoError(t, os.WriteFile(execPath, []byte("mockexam v1.0.0"), 0755))

		server := publishedRelease(t, "v2.0.0", map[string][]byte{
			dl + a.name:        data,
			dl + checksumsFile: []byte(digest + "  " + a.name + "\n"),
		})
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []Stage
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, newBinary, got)
		assert.Equal(t, []Stage{StageCheck, StageDownload, StageVerify, StageExtract, StageInstall, StageDone}, stages)
	})

	t.Run("pinned version skips the check", func(t *testing.T) {
		a := tarRelease(t)
		execPath := filepath.Join(t.TempDir(), "mockexam")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))

		server := publishedRelease(t, "v9.9.9", map[string][]byte{
			dl + a.name:        data,
			dl + checksumsFile: []byte(digest + "  " + a.name + "\n"),
		})
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []Stage
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0", TargetVersion: "v2.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.NotContains(t, stages, StageCheck)
	})

	t.Run("development build", func(t *testing.T) {
		checker := NewChecker()
		assert.ErrorIs(t, checker.Update(context.Background(), &UpdateInput{CurrentVersion: "(devel)"}, nil), ErrDevBuild)
		assert.ErrorIs(t, checker.Update(context.Background(), &UpdateInput{CurrentVersion: "main-abc123"}, nil), ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		server := publishedRelease(t, "v1.0.0", nil)
		checker := NewChecker(WithBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, nil)
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		a := tarRelease(t)
		server := publishedRelease(t, "v2.0.0", map[string][]byte{
			dl + a.name:        data,
			dl + checksumsFile: []byte(fmt.Sprintf("%064d  %s\n", 0, a.name)),
		})
		checker := NewChecker(WithBaseURL(server.URL), WithDownloadBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, nil)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("archive missing from checksums", func(t *testing.T) {
		a := tarRelease(t)
		server := publishedRelease(t, "v2.0.0", map[string][]byte{
			dl + a.name:        data,
			dl + checksumsFile: []byte(digest + "  something-else.tar.gz\n"),
		})
		checker := NewChecker(WithBaseURL(server.URL), WithDownloadBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, nil)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("archive not published", func(t *testing.T) {
		tarRelease(t)
		server := publishedRelease(t, "v2.0.0", nil)
		checker := NewChecker(WithBaseURL(server.URL), WithDownloadBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download archive")
	})
}

func TestInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "mockexam")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0750))

	require.NoError(t, install([]byte("new"), target))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0750), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging files should be cleaned up")
}

func TestInstall_MissingTarget(t *testing.T) {
	err := install([]byte("new"), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

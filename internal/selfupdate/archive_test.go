package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         archive
		wantErr      bool
	}{
		{"darwin", "amd64", archive{name: "mockexam_Darwin_all.tar.gz", binary: "mockexam"}, false},
		{"darwin", "arm64", archive{name: "mockexam_Darwin_all.tar.gz", binary: "mockexam"}, false},
		{"linux", "amd64", archive{name: "mockexam_Linux_x86_64.tar.gz", binary: "mockexam"}, false},
		{"linux", "386", archive{name: "mockexam_Linux_i386.tar.gz", binary: "mockexam"}, false},
		{"windows", "arm64", archive{name: "mockexam_Windows_arm64.zip", binary: "mockexam.exe", zip: true}, false},
		{"freebsd", "amd64", archive{}, true},
		{"linux", "mips", archive{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := archiveFor(tt.goos, tt.goarch)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	input := "ABC123  mockexam_Darwin_all.tar.gz\n" +
		"def456 *mockexam_Windows_x86_64.zip\n" +
		"\n" +
		"not-a-checksum-line\n" +
		"a b c\n"

	assert.Equal(t, map[string]string{
		"mockexam_Darwin_all.tar.gz":  "abc123",
		"mockexam_Windows_x86_64.zip": "def456",
	}, parseChecksums([]byte(input)))
	assert.Empty(t, parseChecksums(nil))
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("mockexam release")
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	assert.NoError(t, verifyChecksum(data, digest))
	assert.NoError(t, verifyChecksum(data, upper(digest)))
	assert.ErrorIs(t, verifyChecksum([]byte("tampered"), digest), ErrChecksum)
}

func TestArchiveExtract(t *testing.T) {
	bin := []byte("#!/bin/sh\necho mockexam")

	t.Run("tar.gz", func(t *testing.T) {
		a := archive{name: "mockexam_Linux_x86_64.tar.gz", binary: "mockexam"}
		got, err := a.extract(buildTarGz(t, "dist/mockexam", bin))
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("zip", func(t *testing.T) {
		a := archive{name: "mockexam_Windows_x86_64.zip", binary: "mockexam.exe", zip: true}
		got, err := a.extract(buildZip(t, "mockexam.exe", bin))
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("missing executable", func(t *testing.T) {
		a := archive{name: "mockexam_Linux_x86_64.tar.gz", binary: "mockexam"}
		_, err := a.extract(buildTarGz(t, "README.md", bin))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("corrupt archive", func(t *testing.T) {
		a := archive{name: "mockexam_Linux_x86_64.tar.gz", binary: "mockexam"}
		_, err := a.extract([]byte("not gzip"))
		assert.Error(t, err)
	})
}

func upper(s string) string { return string(bytes.ToUpper([]byte(s))) }

func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Size:     int64(len(content)),
		Mode:     0755,
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func buildZip(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"
)

// archive describes the release asset built for one platform.
type archive struct {
	name   string // asset file name
	binary string // executable inside the asset
	zip    bool
}

var releaseArch = map[string]string{
	"amd64": "x86_64",
	"arm64": "arm64",
	"386":   "i386",
}

func hostArchive() (archive, error) {
	return archiveFor(runtime.GOOS, runtime.GOARCH)
}

// archiveFor maps a GOOS/GOARCH pair onto the release naming scheme.
// macOS ships a single universal archive.
func archiveFor(goos, goarch string) (archive, error) {
	if goos == "darwin" {
		return archive{name: "mockexam_Darwin_all.tar.gz", binary: "mockexam"}, nil
	}

	var a archive
	switch goos {
	case "linux":
		a = archive{name: "mockexam_Linux_%s.tar.gz", binary: "mockexam"}
	case "windows":
		a = archive{name: "mockexam_Windows_%s.zip", binary: "mockexam.exe", zip: true}
	default:
		return archive{}, fmt.Errorf("no release for operating system %s", goos)
	}

	arch, ok := releaseArch[goarch]
	if !ok {
		return archive{}, fmt.Errorf("no release for architecture %s", goarch)
	}
	a.name = fmt.Sprintf(a.name, arch)
	return a, nil
}

// extract returns the executable stored in data.
func (a archive) extract(data []byte) ([]byte, error) {
	var (
		bin []byte
		err error
	)
	if a.zip {
		bin, err = fromZip(data, a.binary)
	} else {
		bin, err = fromTarGz(data, a.binary)
	}
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, fmt.Errorf("%s not found in %s", a.binary, a.name)
	}
	return bin, nil
}

func fromTarGz(data []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != name {
			continue
		}
		return readCapped(tr)
	}
}

func fromZip(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || path.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return readCapped(rc)
	}
	return nil, nil
}

// readCapped guards against archives that decompress far beyond any
// plausible executable.
func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("executable larger than %d bytes", maxDownloadSize)
	}
	return data, nil
}

// parseChecksums reads sha256sum output. Binary-mode entries ("digest *file")
// are accepted; anything else that is not a digest and a name is skipped.
func parseChecksums(data []byte) map[string]string {
	sums := make(map[string]string)
	for line := range strings.Lines(string(data)) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		sums[strings.TrimPrefix(fields[1], "*")] = strings.ToLower(fields[0])
	}
	return sums
}

func verifyChecksum(data []byte, want string) error {
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != strings.ToLower(want) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

// Package archive unpacks Landsat scene bundles (.tar.gz, .tgz, .tar) into
// a scene directory.
package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
)

const (
	// ReadBufferSize is the buffered reader size in front of decompression.
	ReadBufferSize = 4 * 1024 * 1024

	// pgzipBlockSize is the pgzip read-ahead block size.
	pgzipBlockSize = 256 * 1024
)

var ErrUnsafePath = errors.New("archive entry escapes destination")

var suffixes = []string{".tar.gz", ".tgz", ".tar"}

// IsArchive reports whether path names a supported bundle.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// SceneDir is the default extraction directory: the archive path without
// its bundle suffix.
func SceneDir(archivePath string) string {
	lower := strings.ToLower(archivePath)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return archivePath[:len(archivePath)-len(s)]
		}
	}
	return archivePath + ".d"
}

// Extract unpacks regular files and directories from archivePath into
// destDir and returns the extracted file paths. Compressed bundles use
// parallel decompression when workers > 1. Entries that would land outside
// destDir fail with ErrUnsafePath; links and devices are skipped.
func Extract(ctx context.Context, archivePath, destDir string, workers int) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = bufio.NewReaderSize(f, ReadBufferSize)
	lower := strings.ToLower(archivePath)
	if strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz") {
		if workers > 1 {
			gz, err := pgzip.NewReaderN(reader, pgzipBlockSize, workers)
			if err != nil {
				return nil, fmt.Errorf("gzip %s: %w", archivePath, err)
			}
			defer gz.Close()
			reader = gz
		} else {
			gz, err := gzip.NewReader(reader)
			if err != nil {
				return nil, fmt.Errorf("gzip %s: %w", archivePath, err)
			}
			defer gz.Close()
			reader = gz
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}

	var files []string
	tr := tar.NewReader(reader)
	for {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, fmt.Errorf("tar %s: %w", archivePath, err)
		}

		target, err := safeJoin(root, header.Name)
		if err != nil {
			return files, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files = append(files, target)
		default:
			monitoring.Debugf("[%s] skipping %s (type %c)", filepath.Base(archivePath), header.Name, header.Typeflag)
		}
	}
	return files, nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

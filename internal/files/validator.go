// Package files provides host-side helpers for turning CLI arguments
// into protocol.FileDescriptor sources.
package files

import (
	"archive/zip"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kiloframe/beam/internal/protocol"
)

// Source is a validated local file ready to be offered: its descriptor
// plus the absolute path to read its bytes from.
type Source struct {
	Path       string
	Descriptor protocol.FileDescriptor
}

// Prepare validates each path and returns one Source per input. A
// directory argument is zipped into a temporary archive first, rather
// than rejected, so a whole folder can be offered as a single file.
func Prepare(paths []string) ([]Source, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files specified")
	}

	var sources []Source
	var errs []string

	for _, path := range paths {
		src, err := prepareSingle(path)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		sources = append(sources, src)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("file validation failed:\n  - %s", joinErrors(errs))
	}

	return sources, nil
}

func prepareSingle(path string) (Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Source{}, fmt.Errorf("%s: file does not exist", path)
		}
		return Source{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		zipped, err := zipDirectoryToTemp(absPath)
		if err != nil {
			return Source{}, fmt.Errorf("%s: failed to zip directory: %w", path, err)
		}
		absPath = zipped
		stat, err = os.Stat(absPath)
		if err != nil {
			return Source{}, fmt.Errorf("%s: failed to stat zipped archive: %w", path, err)
		}
	}

	if stat.Size() == 0 {
		return Source{}, fmt.Errorf("%s: file is empty", path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return Source{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	name := filepath.Base(absPath)
	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return Source{
		Path: absPath,
		Descriptor: protocol.FileDescriptor{
			ID:       uuid.NewString(),
			Name:     name,
			Size:     uint64(stat.Size()),
			FileType: mimeType,
		},
	}, nil
}

// zipDirectoryToTemp archives source into a fresh temp file named after
// the directory, returning the archive's path.
func zipDirectoryToTemp(source string) (string, error) {
	target := filepath.Join(os.TempDir(), filepath.Base(source)+".zip")

	zipFile, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)
	defer archive.Close()

	return target, filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if info.IsDir() {
			header.Name += "/"
			_, err := archive.CreateHeader(header)
			return err
		}

		header.Method = zip.Deflate
		writer, err := archive.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})
}

// joinErrors joins multiple error messages with newlines.
func joinErrors(errs []string) string {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("\n  - ")
		}
		b.WriteString(e)
	}
	return b.String()
}

// TotalSize sums the declared sizes of sources.
func TotalSize(sources []Source) int64 {
	var total int64
	for _, s := range sources {
		total += int64(s.Descriptor.Size)
	}
	return total
}

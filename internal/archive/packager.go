package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ArchiveError reports a failure while building a bundle.
type ArchiveError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats packaging failures for logs and UI.
func (e *ArchiveError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("archive %s: %s", e.Path, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ArchiveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExtractionError reports a failure while unpacking a bundle.
type ExtractionError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats extraction failures for logs and UI.
func (e *ExtractionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ExtractionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Pack writes the given files into a gzip-compressed tar archive at
// archivePath. Entries are stored flat under their base names, so the remote
// side can extract them directly into a work directory. A partial archive is
// removed on failure.
func Pack(files []string, archivePath string) error {
	if len(files) == 0 {
		return &ArchiveError{Path: archivePath, Message: "no input files to pack"}
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return &ArchiveError{Path: archivePath, Message: "cannot create archive file", Err: err}
	}

	gzWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzWriter)

	for _, file := range files {
		if err := writeFlatEntry(tarWriter, file); err != nil {
			_ = tarWriter.Close()
			_ = gzWriter.Close()
			_ = out.Close()
			_ = os.Remove(archivePath)
			return err
		}
	}

	tarCloseErr := tarWriter.Close()
	gzCloseErr := gzWriter.Close()
	outCloseErr := out.Close()
	if err := firstNonNil(tarCloseErr, gzCloseErr, outCloseErr); err != nil {
		_ = os.Remove(archivePath)
		return &ArchiveError{Path: archivePath, Message: "cannot finalize archive", Err: err}
	}

	return nil
}

// writeFlatEntry appends one regular file to the tar stream under its base name.
func writeFlatEntry(tarWriter *tar.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ArchiveError{Path: path, Message: "cannot access input file", Err: err}
	}
	if info.IsDir() {
		return &ArchiveError{Path: path, Message: "directories cannot be packed"}
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return &ArchiveError{Path: path, Message: "cannot build archive header", Err: err}
	}
	header.Name = filepath.Base(path)

	src, err := os.Open(path)
	if err != nil {
		return &ArchiveError{Path: path, Message: "cannot open input file", Err: err}
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		_ = src.Close()
		return &ArchiveError{Path: path, Message: "cannot write archive header", Err: err}
	}

	_, copyErr := io.Copy(tarWriter, src)
	closeErr := src.Close()
	if copyErr != nil {
		return &ArchiveError{Path: path, Message: "cannot write archive data", Err: copyErr}
	}
	if closeErr != nil {
		return &ArchiveError{Path: path, Message: "cannot close input file", Err: closeErr}
	}

	return nil
}

// Unpack extracts every regular file from archivePath into destDir and returns
// the extracted paths. Entry names are flattened to base names so a crafted
// archive cannot write outside destDir. An archive with no file entries is an
// error: a result bundle must contain at least one transcript.
func Unpack(archivePath string, destDir string) ([]string, error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return nil, &ExtractionError{Path: archivePath, Message: "cannot open archive", Err: err}
	}
	defer src.Close()

	gzReader, err := gzip.NewReader(src)
	if err != nil {
		return nil, &ExtractionError{Path: archivePath, Message: "not a valid gzip stream", Err: err}
	}
	defer gzReader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &ExtractionError{Path: destDir, Message: "cannot create destination directory", Err: err}
	}

	tarReader := tar.NewReader(gzReader)
	var extracted []string
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Path: archivePath, Message: "corrupted tar stream", Err: err}
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(filepath.Clean(header.Name))
		if name == "." || name == ".." || name == string(filepath.Separator) {
			continue
		}

		targetPath := filepath.Join(destDir, name)
		if !isWithinBaseDir(destDir, targetPath) {
			return nil, &ExtractionError{Path: archivePath, Message: fmt.Sprintf("archive contains invalid path: %s", header.Name)}
		}

		mode := os.FileMode(header.Mode).Perm()
		if mode == 0 {
			mode = 0o644
		}
		dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return nil, &ExtractionError{Path: targetPath, Message: "cannot create extracted file", Err: err}
		}

		_, copyErr := io.Copy(dst, tarReader)
		closeErr := dst.Close()
		if copyErr != nil {
			return nil, &ExtractionError{Path: targetPath, Message: "cannot write extracted file", Err: copyErr}
		}
		if closeErr != nil {
			return nil, &ExtractionError{Path: targetPath, Message: "cannot close extracted file", Err: closeErr}
		}

		extracted = append(extracted, targetPath)
	}

	if len(extracted) == 0 {
		return nil, &ExtractionError{Path: archivePath, Message: "archive contains no files"}
	}

	return extracted, nil
}

// isWithinBaseDir reports whether targetPath stays inside baseDir after cleaning.
func isWithinBaseDir(baseDir string, targetPath string) bool {
	baseClean := filepath.Clean(baseDir)
	targetClean := filepath.Clean(targetPath)
	relative, err := filepath.Rel(baseClean, targetClean)
	if err != nil {
		return false
	}
	return relative == "." || (!strings.HasPrefix(relative, "..") && relative != "")
}

// firstNonNil returns the first non-nil error in order.
func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

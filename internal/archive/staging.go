package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrUnsafeArchivePath = errors.New("unsafe path in archive")
	ErrArchiveTooLarge   = errors.New("archive exceeds configured limits")
	ErrInvalidArchive    = errors.New("invalid zip archive")
	ErrStagingNotFound   = errors.New("staging directory not found")
)

const macOSXPrefix = "__MACOSX"

// FileInfo describes one staged file. Path is relative to the detected
// archive root, always with forward slashes. SHA256 is filled for PDFs only;
// the classifier uses it for duplicate-content detection.
type FileInfo struct {
	Path   string
	Size   int64
	SHA256 string
}

// Listing is the virtual file tree of one staged archive.
type Listing struct {
	Root  string
	Files []FileInfo
}

// Staging extracts uploaded archives into per-job directories under a
// configured root. Staged files live only for the duration of one upload job
// and are removed on commit or purge.
type Staging struct {
	root          string
	maxFiles      int
	maxTotalBytes int64
}

func NewStaging(root string, maxFiles int, maxTotalBytes int64) *Staging {
	return &Staging{root: root, maxFiles: maxFiles, maxTotalBytes: maxTotalBytes}
}

// Stage validates and extracts a zip archive for the given job. All entries
// are checked for traversal segments and the size/count ceilings before a
// single byte is written.
func (s *Staging) Stage(ctx context.Context, jobID string, data []byte) (Listing, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	type entry struct {
		file *zip.File
		name string
	}

	var entries []entry
	var totalBytes int64
	for _, f := range zr.File {
		name := f.Name
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
			return Listing{}, fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
		}
		name = strings.ReplaceAll(name, `\`, "/")
		for _, part := range strings.Split(name, "/") {
			if part == ".." {
				return Listing{}, fmt.Errorf("%w: %s", ErrUnsafeArchivePath, f.Name)
			}
		}
		if strings.HasPrefix(name, macOSXPrefix) {
			continue
		}
		entries = append(entries, entry{file: f, name: name})
		totalBytes += int64(f.UncompressedSize64)
	}

	if s.maxFiles > 0 && len(entries) > s.maxFiles {
		return Listing{}, fmt.Errorf("%w: %d files", ErrArchiveTooLarge, len(entries))
	}
	if s.maxTotalBytes > 0 && totalBytes > s.maxTotalBytes {
		return Listing{}, fmt.Errorf("%w: %d bytes uncompressed", ErrArchiveTooLarge, totalBytes)
	}

	extractDir := s.extractDir(jobID)
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return Listing{}, fmt.Errorf("create staging dir: %w", err)
	}

	// The declared sizes above are untrusted input; the ceiling is enforced
	// again on the bytes actually inflated, entry by entry.
	budget := int64(-1)
	if s.maxTotalBytes > 0 {
		budget = s.maxTotalBytes
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return Listing{}, ctx.Err()
		default:
		}

		info, err := s.extractOne(extractDir, e.file, e.name, budget)
		if err != nil {
			return Listing{}, err
		}
		if budget >= 0 {
			budget -= info.Size
		}
		files = append(files, info)
	}

	rootName, rootPrefix := detectRoot(files)
	if rootPrefix != "" {
		for i := range files {
			files[i].Path = strings.TrimPrefix(files[i].Path, rootPrefix)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return Listing{Root: rootName, Files: files}, nil
}

func (s *Staging) extractOne(extractDir string, f *zip.File, name string, budget int64) (FileInfo, error) {
	target := filepath.Join(extractDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return FileInfo{}, fmt.Errorf("create dir for %s: %w", name, err)
	}

	src, err := f.Open()
	if err != nil {
		return FileInfo{}, fmt.Errorf("open zip entry %s: %w", name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return FileInfo{}, fmt.Errorf("create staged file %s: %w", name, err)
	}
	defer dst.Close()

	var written int64
	var sum string
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		h := sha256.New()
		written, err = limitedCopy(io.MultiWriter(dst, h), src, budget)
		sum = hex.EncodeToString(h.Sum(nil))
	} else {
		written, err = limitedCopy(dst, src, budget)
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("extract %s: %w", name, err)
	}

	return FileInfo{Path: name, Size: written, SHA256: sum}, nil
}

// limitedCopy copies src to dst but fails once more than budget bytes
// arrive. A zip central directory can declare tiny sizes for entries that
// inflate arbitrarily, so the declared-size check alone is not a ceiling.
// A negative budget means unlimited.
func limitedCopy(dst io.Writer, src io.Reader, budget int64) (int64, error) {
	if budget < 0 {
		return io.Copy(dst, src)
	}
	written, err := io.Copy(dst, io.LimitReader(src, budget+1))
	if err != nil {
		return written, err
	}
	if written > budget {
		return written, ErrArchiveTooLarge
	}
	return written, nil
}

// detectRoot treats a single top-level directory wrapping everything as the
// archive root. It returns the display name and the path prefix to strip;
// both are empty when the archive's own top level is the root.
func detectRoot(files []FileInfo) (string, string) {
	var root string
	for _, f := range files {
		i := strings.IndexByte(f.Path, '/')
		if i < 0 {
			return "", ""
		}
		top := f.Path[:i]
		if root == "" {
			root = top
		} else if top != root {
			return "", ""
		}
	}
	if root == "" {
		return "", ""
	}
	return root, root + "/"
}

// RootDir resolves the on-disk directory the listing paths are relative to.
func (s *Staging) RootDir(jobID string) (string, error) {
	extractDir := s.extractDir(jobID)
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrStagingNotFound
		}
		return "", fmt.Errorf("read staging dir: %w", err)
	}

	var dirs []string
	hasFile := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), macOSXPrefix) {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			hasFile = true
		}
	}
	if len(dirs) == 1 && !hasFile {
		return filepath.Join(extractDir, dirs[0]), nil
	}
	return extractDir, nil
}

// Exists reports whether a root-relative path is a staged regular file.
// Paths are re-checked for traversal because commit payloads are edited
// client-side.
func (s *Staging) Exists(ctx context.Context, jobID string, relPath string) (bool, error) {
	_ = ctx

	path, err := s.resolve(jobID, relPath)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat staged file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *Staging) Open(ctx context.Context, jobID string, relPath string) (io.ReadCloser, error) {
	_ = ctx

	path, err := s.resolve(jobID, relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged file %s: %w", relPath, err)
	}
	return file, nil
}

// Remove garbage-collects the whole staging directory of a job.
func (s *Staging) Remove(ctx context.Context, jobID string) error {
	_ = ctx

	if err := os.RemoveAll(s.jobDir(jobID)); err != nil {
		return fmt.Errorf("remove staging dir: %w", err)
	}
	return nil
}

func (s *Staging) resolve(jobID string, relPath string) (string, error) {
	relPath = strings.ReplaceAll(relPath, `\`, "/")
	if relPath == "" || strings.HasPrefix(relPath, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, relPath)
	}
	for _, part := range strings.Split(relPath, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, relPath)
		}
	}

	rootDir, err := s.RootDir(jobID)
	if err != nil {
		return "", err
	}
	return filepath.Join(rootDir, filepath.FromSlash(relPath)), nil
}

func (s *Staging) jobDir(jobID string) string {
	return filepath.Join(s.root, "job_"+jobID)
}

func (s *Staging) extractDir(jobID string) string {
	return filepath.Join(s.jobDir(jobID), "extracted")
}

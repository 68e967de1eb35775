package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MediaStore is the durable lecture media root. Destination paths are
// slash-separated and relative to the configured root; traversal segments
// are rejected because paths are derived from reviewer-edited input.
type MediaStore struct {
	root string
}

func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

func (s *MediaStore) Write(ctx context.Context, destPath string, r io.Reader) error {
	_ = ctx

	target, err := s.resolve(destPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create media file %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("write media file %s: %w", destPath, err)
	}
	return nil
}

func (s *MediaStore) Remove(ctx context.Context, destPath string) error {
	_ = ctx

	target, err := s.resolve(destPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file %s: %w", destPath, err)
	}
	return nil
}

// Snapshot copies existing files into an archive directory before an
// overwrite, as the recovery copy behind the overwrite=true path. Missing
// sources are skipped: a ref may point at a file a prior failure already
// removed. An existing snapshot file is never replaced: a commit retry
// re-snapshots after the live files may already hold the new bytes, and the
// first copy is the only one with the original content.
func (s *MediaStore) Snapshot(ctx context.Context, destPaths []string, snapshotDir string) error {
	_ = ctx

	for _, p := range destPaths {
		if p == "" {
			continue
		}
		src, err := s.resolve(p)
		if err != nil {
			return err
		}

		target, err := s.resolve(snapshotDir + "/" + filepath.Base(p))
		if err != nil {
			return err
		}
		if _, err := os.Stat(target); err == nil {
			continue
		}

		in, err := os.Open(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("open snapshot source %s: %w", p, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			in.Close()
			return fmt.Errorf("create snapshot dir: %w", err)
		}

		out, err := os.Create(target)
		if err != nil {
			in.Close()
			return fmt.Errorf("create snapshot file: %w", err)
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		out.Close()
		if copyErr != nil {
			return fmt.Errorf("copy snapshot of %s: %w", p, copyErr)
		}
	}
	return nil
}

// Restore copies snapshot files back over their live paths after a failed
// overwrite, matching them by base name the same way Snapshot laid them out.
// Paths without a snapshot file are left alone.
func (s *MediaStore) Restore(ctx context.Context, snapshotDir string, destPaths []string) error {
	_ = ctx

	for _, p := range destPaths {
		if p == "" {
			continue
		}
		src, err := s.resolve(snapshotDir + "/" + filepath.Base(p))
		if err != nil {
			return err
		}
		in, err := os.Open(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("open snapshot %s: %w", p, err)
		}

		target, err := s.resolve(p)
		if err != nil {
			in.Close()
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			in.Close()
			return fmt.Errorf("create media dir: %w", err)
		}
		out, err := os.Create(target)
		if err != nil {
			in.Close()
			return fmt.Errorf("restore media file %s: %w", p, err)
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		out.Close()
		if copyErr != nil {
			return fmt.Errorf("restore media file %s: %w", p, copyErr)
		}
	}
	return nil
}

func (s *MediaStore) resolve(destPath string) (string, error) {
	destPath = strings.ReplaceAll(destPath, `\`, "/")
	if destPath == "" || strings.HasPrefix(destPath, "/") {
		return "", fmt.Errorf("invalid media path: %q", destPath)
	}
	for _, part := range strings.Split(destPath, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid media path: %q", destPath)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(destPath)), nil
}

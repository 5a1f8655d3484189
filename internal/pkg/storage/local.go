package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalAdapter implements Storage on a directory tree. Buckets map to
// top-level directories and keys to file paths beneath them.
type LocalAdapter struct {
	root string
}

// LocalOptions configures the filesystem backend.
type LocalOptions struct {
	// Root is the base directory for all buckets.
	Root string
}

// ErrLocalRootRequired is returned when the root directory is missing.
var ErrLocalRootRequired = errors.New("storage: local root directory is required")

// NewLocal constructs a filesystem adapter rooted at opts.Root.
func NewLocal(opts LocalOptions) (*LocalAdapter, error) {
	if opts.Root == "" {
		return nil, ErrLocalRootRequired
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, err
	}
	return &LocalAdapter{root: opts.Root}, nil
}

func (l *LocalAdapter) path(bucket, key string) string {
	return filepath.Join(l.root, bucket, filepath.FromSlash(key))
}

// PutObject writes data to a file under root/bucket/key.
func (l *LocalAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	p := l.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, err
	}

	f, err := os.Create(p)
	if err != nil {
		return ObjectInfo{}, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        n,
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
		UpdatedAt:   time.Now(),
	}, nil
}

// GetObject opens the file for reading.
func (l *LocalAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	info, err := l.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	f, err := os.Open(l.path(bucket, key))
	if err != nil {
		return nil, ObjectInfo{}, mapLocalErr(err)
	}

	return f, info, nil
}

// StatObject returns file metadata.
func (l *LocalAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	st, err := os.Stat(l.path(bucket, key))
	if err != nil {
		return ObjectInfo{}, mapLocalErr(err)
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}

	return ObjectInfo{
		Bucket:    bucket,
		Key:       key,
		Size:      st.Size(),
		UpdatedAt: st.ModTime(),
	}, nil
}

// DeleteObject removes the file.
func (l *LocalAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(l.path(bucket, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ListObjects walks the bucket directory collecting files under prefix.
func (l *LocalAdapter) ListObjects(ctx context.Context, bucket, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	base := filepath.Join(l.root, bucket)

	objects := make([]ObjectInfo, 0)
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		st, err := d.Info()
		if err != nil {
			return err
		}

		objects = append(objects, ObjectInfo{
			Bucket:    bucket,
			Key:       key,
			Size:      st.Size(),
			UpdatedAt: st.ModTime(),
		})
		if opts.Limit > 0 && int32(len(objects)) >= opts.Limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	return objects, nil
}

// PresignGet is not supported on the filesystem backend.
func (l *LocalAdapter) PresignGet(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

// Close releases adapter resources.
func (l *LocalAdapter) Close() error {
	return nil
}

func mapLocalErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}

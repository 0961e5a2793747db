package zvec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/seanmozeik/zvec/blobstore"
)

// backupFiles are the collection files a backup carries, in upload order.
// The manifest goes last so a prefix only ever looks complete when it is.
var backupFiles = []string{"segment.seg", "journal.wal", "manifest.json"}

// BackupOptions configures collection backup.
type BackupOptions struct {
	// BytesPerSecond throttles the upload. Zero means unlimited.
	BytesPerSecond int64
}

// Backup flushes the collection and uploads its storage files to the blob
// store under prefix. An existing backup at the same prefix is overwritten.
func (c *Collection) Backup(ctx context.Context, store blobstore.Store, prefix string, optFns ...func(o *BackupOptions)) error {
	var opts BackupOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := c.Flush(ctx); err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.BytesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.BytesPerSecond), int(opts.BytesPerSecond))
	}

	for _, name := range backupFiles {
		src := filepath.Join(c.path, name)
		f, err := os.Open(src)
		if err != nil {
			if os.IsNotExist(err) {
				// A fresh collection may not have a segment yet.
				continue
			}
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("open %s", name), cause: err}
		}

		var r io.Reader = f
		if limiter != nil {
			r = &throttledReader{r: f, limiter: limiter, ctx: ctx}
		}
		err = store.Put(ctx, path.Join(prefix, name), r)
		_ = f.Close()
		if err != nil {
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("upload %s", name), cause: err}
		}
	}

	c.logger.Info("collection backed up", "prefix", prefix)
	return nil
}

// Restore downloads a backup from the blob store into destPath. It fails
// with CodeAlreadyExists when a collection already lives there and
// CodeNotFound when the prefix holds no backup. The restored collection is
// opened with OpenCollection.
func Restore(ctx context.Context, store blobstore.Store, prefix, destPath string) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	if _, err := os.Stat(filepath.Join(destPath, "manifest.json")); err == nil {
		return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf("collection at %s", destPath)}
	}
	if err := os.MkdirAll(destPath, 0750); err != nil {
		return &Error{Code: CodeInternal, Message: "create destination dir", cause: err}
	}

	restored := 0
	for _, name := range backupFiles {
		rc, err := store.Get(ctx, path.Join(prefix, name))
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				continue
			}
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("download %s", name), cause: err}
		}
		dest := filepath.Join(destPath, name)
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			_ = rc.Close()
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("create %s", name), cause: err}
		}
		_, err = io.Copy(f, rc)
		_ = rc.Close()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("write %s", name), cause: err}
		}
		restored++
	}

	if restored == 0 {
		return &Error{Code: CodeNotFound, Message: fmt.Sprintf("no backup under %s", prefix)}
	}
	if _, err := os.Stat(filepath.Join(destPath, "manifest.json")); err != nil {
		return &Error{Code: CodeInternal, Message: "backup is missing its manifest"}
	}
	return nil
}

// throttledReader paces reads through a rate limiter.
type throttledReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

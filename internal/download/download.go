// Package download fetches release archives into a local directory, reusing
// an existing file when its byte size matches the advertised size.
//
// Byte size is the only idempotency and corruption signal: no checksum is
// computed. A transfer interrupted halfway leaves a short file behind, which
// fails the size check on the next run and is fetched again.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/3leaps/jbi/internal/host/jetbrains"
	"github.com/3leaps/jbi/internal/model"
)

// Reporter receives the observable steps of a download.
type Reporter interface {
	Skipped(path string, size int64)
	SizeMismatch(path string, have, want int64)
	Started(url, path string)
	Progress(done, total int64)
	Finished(path string, written int64)
}

// Downloader fetches archives described by a model.DownloadDescriptor.
type Downloader struct {
	HTTP      *http.Client
	UserAgent string
	Log       *zap.Logger
	Reporter  Reporter
}

// FileName returns the final path segment of rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse download url %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", errors.Newf("download url %q has no file name", rawURL)
	}
	return name, nil
}

// Download places the archive for desc in tempDir and returns its path. An
// existing file of exactly desc.Size bytes is reused unless force is set.
func (d *Downloader) Download(ctx context.Context, desc model.DownloadDescriptor, tempDir string, force bool) (string, error) {
	name, err := FileName(desc.URL)
	if err != nil {
		return "", err
	}

	// #nosec G301 -- tempDir is user-selected
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "mkdir %s", tempDir)
	}
	dest := filepath.Join(tempDir, name)

	fi, err := os.Stat(dest)
	switch {
	case err == nil && fi.IsDir():
		return "", errors.Newf("%s exists and is a directory", dest)
	case err == nil:
		have := fi.Size()
		if have == desc.Size && !force {
			d.reporter().Skipped(dest, have)
			return dest, nil
		}
		if have != desc.Size {
			d.reporter().SizeMismatch(dest, have, desc.Size)
		} else {
			d.logger().Debug("size matches but download forced", zap.String("path", dest))
		}
	case !os.IsNotExist(err):
		return "", errors.Wrapf(err, "stat %s", dest)
	}

	d.reporter().Started(desc.URL, dest)
	written, err := d.fetch(ctx, desc, dest)
	if err != nil {
		return "", err
	}
	if written != desc.Size {
		d.logger().Warn("downloaded size differs from advertised size",
			zap.String("path", dest), zap.Int64("written", written), zap.Int64("expected", desc.Size))
	}
	d.reporter().Finished(dest, written)
	return dest, nil
}

func (d *Downloader) fetch(ctx context.Context, desc model.DownloadDescriptor, dest string) (int64, error) {
	resp, err := jetbrains.Get(ctx, d.HTTP, desc.URL, d.UserAgent)
	if err != nil {
		return 0, errors.Wrapf(err, "fetch %s", desc.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, jetbrains.StatusError(resp, desc.URL)
	}

	total := desc.Size
	if total <= 0 && resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	// #nosec G304 -- dest is tempDir joined with the url's base name
	f, err := os.Create(dest)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", dest)
	}

	body := &progressReader{r: resp.Body, total: total, report: d.reporter().Progress}
	written, err := io.Copy(f, body)
	if err != nil {
		_ = f.Close()
		return written, errors.Wrapf(err, "write %s", dest)
	}
	if err := f.Close(); err != nil {
		return written, errors.Wrapf(err, "close %s", dest)
	}
	return written, nil
}

func (d *Downloader) reporter() Reporter {
	if d.Reporter == nil {
		return nopReporter{}
	}
	return d.Reporter
}

func (d *Downloader) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

type progressReader struct {
	r      io.Reader
	done   int64
	total  int64
	report func(done, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.report(p.done, p.total)
	}
	return n, err
}

type nopReporter struct{}

func (nopReporter) Skipped(string, int64)             {}
func (nopReporter) SizeMismatch(string, int64, int64) {}
func (nopReporter) Started(string, string)            {}
func (nopReporter) Progress(int64, int64)             {}
func (nopReporter) Finished(string, int64)            {}

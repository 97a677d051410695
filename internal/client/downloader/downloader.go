// Package downloader fetches remote content files into the game directory.
//
// Files at or below the small-file limit are fetched whole, many in flight.
// Larger files are split into fixed-size byte ranges fetched concurrently
// and written at their offsets by a per-file coordinator.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/pkg/manifest"
)

const (
	// smallFileLimit is the largest size fetched with a single request.
	smallFileLimit = 1_048_576

	// chunkSize is the byte-range length for large file downloads.
	chunkSize = 512_000

	// smallParallelism bounds concurrent whole-file requests.
	smallParallelism = 100

	// chunkParallelism bounds concurrent range requests of one large file.
	chunkParallelism = 8
)

// Task names one remote file and its destination path on disk.
type Task struct {
	Path string
	File manifest.RemoteFile
}

// Downloader fetches content with bounded parallelism. Progress, when set,
// receives the length of every completed chunk or whole small file; it is
// called from worker goroutines and must be safe for concurrent use.
type Downloader struct {
	client   *http.Client
	progress func(n int)
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithProgress installs the progress sink.
func WithProgress(fn func(n int)) Option {
	return func(d *Downloader) { d.progress = fn }
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// New creates a downloader. The default client has no global timeout; range
// requests are bounded by their size and cancellation runs through ctx.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{Transport: &http.Transport{
			MaxIdleConnsPerHost: smallParallelism,
			IdleConnTimeout:     30 * time.Second,
		}},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Downloader) report(n int) {
	if d.progress != nil {
		d.progress(n)
	}
}

// Download fetches every task. The first failure cancels all in-flight
// transfers and is returned.
func (d *Downloader) Download(ctx context.Context, tasks []Task) error {
	var small, large []Task
	for _, t := range tasks {
		if t.File.Size > smallFileLimit {
			large = append(large, t)
		} else {
			small = append(small, t)
		}
	}

	if err := d.downloadSmall(ctx, small); err != nil {
		return err
	}
	for _, t := range large {
		if err := d.downloadLarge(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// downloadSmall fetches whole files with bounded parallelism.
func (d *Downloader) downloadSmall(ctx context.Context, tasks []Task) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(smallParallelism)
	for _, t := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.fetchWhole(ctx, t); err != nil {
				return fmt.Errorf("download %s: %w", t.Path, err)
			}
			d.report(int(t.File.Size))
			return nil
		})
	}
	return g.Wait()
}

func (d *Downloader) fetchWhole(ctx context.Context, t Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.File.URI, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return err
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if uint64(n) != t.File.Size {
		return fmt.Errorf("got %d bytes, want %d", n, t.File.Size)
	}
	return nil
}

// downloadLarge fetches one file as concurrent byte ranges. The destination
// is pre-sized and each worker writes its chunk at the range offset.
func (d *Downloader) downloadLarge(ctx context.Context, t Task) error {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return fmt.Errorf("download %s: %w", t.Path, err)
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return fmt.Errorf("download %s: %w", t.Path, err)
	}
	defer f.Close()
	if err := f.Truncate(int64(t.File.Size)); err != nil {
		return fmt.Errorf("download %s: %w", t.Path, err)
	}

	logger.Debug("downloading in ranges", logger.Path(t.Path),
		logger.KeyBytes, t.File.Size)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkParallelism)
	for start := uint64(0); start < t.File.Size; start += chunkSize {
		end := start + chunkSize - 1
		if end >= t.File.Size {
			end = t.File.Size - 1
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.fetchRange(ctx, f, t.File.URI, start, end); err != nil {
				return fmt.Errorf("download %s range %d-%d: %w", t.Path, start, end, err)
			}
			d.report(int(end - start + 1))
			return nil
		})
	}
	return g.Wait()
}

func (d *Downloader) fetchRange(ctx context.Context, f *os.File, uri string, start, end uint64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(end-start+1)))
	if err != nil {
		return err
	}
	if uint64(len(body)) != end-start+1 {
		return fmt.Errorf("got %d bytes, want %d", len(body), end-start+1)
	}
	// WriteAt is safe for concurrent use on distinct ranges.
	_, err = f.WriteAt(body, int64(start))
	return err
}

package pkgfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/schollz/progressbar/v3"
)

// FetchFiles downloads the given URLs into destDir using a pool of workers.
// It shows a single progress bar on progress tracking files completed vs
// total, and returns the destination paths in the order of urls. All
// download errors are joined into the returned error.
func FetchFiles(ctx context.Context, client *http.Client, urls []string, destDir string, workers int, progress io.Writer) ([]string, error) {
	log := logger.Logger()

	if client == nil {
		client = http.DefaultClient
	}
	if progress == nil {
		progress = io.Discard
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory %s: %w", destDir, err)
	}

	total := len(urls)
	paths := make([]string, total)
	errs := make([]error, total)
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rawURL := urls[idx]
				destPath, err := destinationFor(destDir, rawURL)
				if err == nil {
					bar.Describe(fmt.Sprintf("downloading %s", filepath.Base(destPath)))
					err = fetchOne(ctx, client, rawURL, destPath)
				}

				if err != nil {
					log.Errorf("downloading %s failed: %v", rawURL, err)
					errs[idx] = fmt.Errorf("downloading %s: %w", rawURL, err)
				} else {
					paths[idx] = destPath
					logger.RecordFetched(rawURL)
					log.Debugf("downloaded %s to %s", rawURL, destPath)
				}
				_ = bar.Add(1)
			}
		}()
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	_ = bar.Finish()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return paths, nil
}

// destinationFor maps a URL onto a file name inside destDir.
func destinationFor(destDir, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("URL %s has no file name", rawURL)
	}
	return filepath.Join(destDir, name), nil
}

// fetchOne streams rawURL into destPath through a temp file, so a failed
// download never leaves a partial file under the final name.
func fetchOne(ctx context.Context, client *http.Client, rawURL, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".part-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	if _, err = io.Copy(out, resp.Body); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(out.Name(), destPath)
}

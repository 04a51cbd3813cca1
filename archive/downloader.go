package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ReportKind selects which daily archive to mine.
type ReportKind string

const (
	FutReport ReportKind = "fut_rpt"
	OptReport ReportKind = "opt_rpt"
)

// ArchiveName builds the exchange's archive file name for a report date.
func ArchiveName(kind ReportKind, date time.Time) string {
	stamp := date.Format("2006_01_02")
	if kind == OptReport {
		return fmt.Sprintf("OptionsDaily_%s.zip", stamp)
	}
	return fmt.Sprintf("Daily_%s.zip", stamp)
}

// ReportFileName maps an archive name to the report inside it: same name,
// .rpt instead of .zip.
func ReportFileName(archiveName string) string {
	return strings.TrimSuffix(archiveName, ".zip") + ".rpt"
}

// Downloader fetches daily report archives from the exchange.
type Downloader struct {
	urls    map[ReportKind]string
	dataDir string
	client  *http.Client
	log     *zap.Logger
}

func NewDownloader(futURL, optURL, dataDir string, log *zap.Logger) *Downloader {
	return &Downloader{
		urls: map[ReportKind]string{
			FutReport: futURL,
			OptReport: optURL,
		},
		dataDir: dataDir,
		client:  &http.Client{Timeout: 2 * time.Minute},
		log:     log,
	}
}

// LocalPath is where the archive for a kind/date lives under the data dir.
func (d *Downloader) LocalPath(kind ReportKind, date time.Time) string {
	return filepath.Join(d.dataDir, string(kind), ArchiveName(kind, date))
}

// Download fetches the archive for a date, retrying transient failures, and
// verifies the result is a readable ZIP. An existing local file is kept
// unless recover is set.
func (d *Downloader) Download(ctx context.Context, kind ReportKind, date time.Time, recover bool) (string, error) {
	dest := d.LocalPath(kind, date)
	if !recover {
		if _, err := os.Stat(dest); err == nil {
			d.log.Info("archive already downloaded", zap.String("path", dest))
			return dest, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}

	url := d.urls[kind] + "/" + ArchiveName(kind, date)
	d.log.Info("downloading archive", zap.String("url", url), zap.String("dest", dest))

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	err := backoff.Retry(func() error {
		return d.fetchOnce(ctx, url, dest)
	}, policy)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}

	if err := VerifyZip(dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return backoff.Permanent(fmt.Errorf("archive not published: %s", url))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return backoff.Permanent(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}

// VerifyZip walks every entry of the archive and reads it through, so CRC
// errors surface. A bad archive is removed so the next run redownloads it.
func VerifyZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("bad zip %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			_ = os.Remove(path)
			return fmt.Errorf("bad zip entry %s in %s: %w", f.Name, path, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			_ = os.Remove(path)
			return fmt.Errorf("corrupt zip entry %s in %s: %w", f.Name, path, err)
		}
	}
	return nil
}

// Extract unpacks the archive into destDir and returns the path of the
// report file.
func Extract(zipPath, destDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", zipPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	for _, f := range zr.File {
		name := filepath.Base(f.Name)
		if name == "." || name == ".." || f.FileInfo().IsDir() {
			continue
		}
		if err := extractFile(f, filepath.Join(destDir, name)); err != nil {
			return "", err
		}
	}
	return filepath.Join(destDir, ReportFileName(filepath.Base(zipPath))), nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/archive"
	"github.com/fexlab/fexmine/candlestore"
	"github.com/fexlab/fexmine/database"
	"github.com/fexlab/fexmine/metrics"
	"github.com/fexlab/fexmine/resample"
)

type minerMetrics struct {
	ticksParsed    prometheus.Counter
	candlesWritten prometheus.Counter
	datesMined     prometheus.Counter
	datesFailed    prometheus.Counter
	lastMined      prometheus.Gauge
}

func newMinerMetrics() minerMetrics {
	return minerMetrics{
		ticksParsed:    metrics.NewCounter(prometheus.CounterOpts{Name: "fexmine_ticks_parsed_total", Help: "Ticks parsed from daily reports"}),
		candlesWritten: metrics.NewCounter(prometheus.CounterOpts{Name: "fexmine_candles_written_total", Help: "One-minute candles upserted"}),
		datesMined:     metrics.NewCounter(prometheus.CounterOpts{Name: "fexmine_dates_mined_total", Help: "Report dates mined successfully"}),
		datesFailed:    metrics.NewCounter(prometheus.CounterOpts{Name: "fexmine_dates_failed_total", Help: "Report dates that failed"}),
		lastMined:      metrics.NewGauge(prometheus.GaugeOpts{Name: "fexmine_last_mined_date", Help: "Most recently mined report date as unix seconds"}),
	}
}

// Miner runs the per-date pipeline: ensure archive locally, mirror it,
// extract the report, parse ticks, resample and upsert.
type Miner struct {
	db     *gorm.DB
	store  *candlestore.Store
	dl     *archive.Downloader
	remote archive.RemoteStore
	log    *zap.Logger
	met    minerMetrics
}

func NewMiner(db *gorm.DB, dl *archive.Downloader, remote archive.RemoteStore, log *zap.Logger) *Miner {
	return &Miner{
		db:     db,
		store:  candlestore.New(db, log),
		dl:     dl,
		remote: remote,
		log:    log,
		met:    newMinerMetrics(),
	}
}

// MineRange processes dates sequentially. A failing date is logged and
// skipped; the loop never continues a date with partial state.
func (m *Miner) MineRange(ctx context.Context, start, end time.Time, kind archive.ReportKind, symbol string, recover bool) error {
	runID := uuid.NewString()
	log := m.log.With(zap.String("run_id", runID), zap.String("kind", string(kind)), zap.String("symbol", symbol))
	log.Info("mining range",
		zap.String("start", start.Format("20060102")),
		zap.String("end", end.Format("20060102")))

	var failed int
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.MineDate(ctx, d, kind, symbol, recover); err != nil {
			if IsNoData(err) {
				// Holidays and non-trading days produce empty reports.
				log.Info("no report data", zap.String("date", d.Format("20060102")))
				continue
			}
			failed++
			m.met.datesFailed.Inc()
			log.Warn("date failed", zap.String("date", d.Format("20060102")), zap.Error(err))
			continue
		}
		m.met.datesMined.Inc()
		m.met.lastMined.Set(float64(d.Unix()))
	}
	if failed > 0 {
		log.Warn("range finished with failures", zap.Int("failed", failed))
	} else {
		log.Info("range finished")
	}
	return nil
}

// MineDate runs the full pipeline for one report date. Any error leaves the
// candle table untouched for that date.
func (m *Miner) MineDate(ctx context.Context, date time.Time, kind archive.ReportKind, symbol string, recover bool) error {
	zipPath, err := m.ensureArchive(ctx, date, kind, recover)
	if err != nil {
		return err
	}
	if err := m.mirrorArchive(ctx, zipPath, kind, recover); err != nil {
		// Mirroring is best effort; mining proceeds on the local copy.
		m.log.Warn("archive mirror failed", zap.String("path", zipPath), zap.Error(err))
	}

	tmpDir := filepath.Join(filepath.Dir(zipPath), "tmp")
	rptPath, err := archive.Extract(zipPath, tmpDir)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(rptPath)
	if err != nil {
		return fmt.Errorf("failed to read report %s: %w", rptPath, err)
	}

	month := resample.ContractMonth(date)
	ticks, matched, err := resample.ParseTicksWithRollover(raw, symbol, month)
	if err != nil {
		return err
	}
	m.met.ticksParsed.Add(float64(len(ticks)))
	log := m.log.With(zap.String("date", date.Format("20060102")), zap.String("symbol", symbol))
	if matched != month {
		log.Info("contract month rolled", zap.String("contract", matched))
	}

	candles, err := resample.Resample(ticks, resample.Options{
		Progress: func(done, total int) {
			log.Debug("resampling", zap.Int("done", done), zap.Int("total", total))
		},
	})
	if err != nil {
		return err
	}

	if err := database.EnsureCandleTable(m.db, symbol); err != nil {
		return err
	}
	inserted, err := m.store.Upsert(ctx, symbol, candles)
	if err != nil {
		return err
	}
	m.met.candlesWritten.Add(float64(inserted))
	log.Info("date mined", zap.Int("ticks", len(ticks)), zap.Int64("candles", inserted))
	return nil
}

// ensureArchive resolves the archive for a date: local copy, then the remote
// mirror, then a fresh exchange download.
func (m *Miner) ensureArchive(ctx context.Context, date time.Time, kind archive.ReportKind, recover bool) (string, error) {
	local := m.dl.LocalPath(kind, date)
	if !recover {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
		if m.remote != nil {
			name := archive.ArchiveName(kind, date)
			ok, err := m.remote.Exists(ctx, name)
			if err != nil {
				return "", err
			}
			if ok {
				if err := m.remote.Fetch(ctx, name, local); err != nil {
					return "", err
				}
				if err := archive.VerifyZip(local); err == nil {
					return local, nil
				}
				m.log.Warn("mirrored archive corrupt, redownloading", zap.String("name", name))
			}
		}
	}
	return m.dl.Download(ctx, kind, date, recover)
}

func (m *Miner) mirrorArchive(ctx context.Context, zipPath string, kind archive.ReportKind, recover bool) error {
	if m.remote == nil {
		return nil
	}
	name := filepath.Base(zipPath)
	if !recover {
		ok, err := m.remote.Exists(ctx, name)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return m.remote.Upload(ctx, zipPath, name)
}

// IsNoData reports whether a date failed only because the report had no
// matching lines.
func IsNoData(err error) bool {
	return errors.Is(err, resample.ErrNoData)
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/export"
	"github.com/fexlab/fexmine/metrics"
	"github.com/fexlab/fexmine/signals"
)

// Handler serves resampled candles and signal series for charting clients.
type Handler struct {
	exporter *export.Exporter
	calc     *signals.Calculator
	log      *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{
		exporter: export.New(db, log),
		calc:     signals.New(db, log),
		log:      log,
	}
}

type candleQuery struct {
	Symbol   string `form:"symbol" binding:"required"`
	Date     string `form:"date" binding:"required"`
	Interval int    `form:"interval"`
}

func (h *Handler) GetCandles(c *gin.Context) {
	var params candleQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Interval <= 0 {
		params.Interval = 1
	}

	rows, err := h.exporter.Resample(params.Symbol, params.Date, params.Interval)
	if err != nil {
		h.log.Error("candle query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// defaultSince bounds signal queries when the client gives no start date.
const defaultSince = "2020/01/01"

func (h *Handler) GetSignals(c *gin.Context) {
	since := c.DefaultQuery("since", defaultSince)

	switch symbol := c.Param("symbol"); symbol {
	case "TX":
		series, err := h.calc.ForeignFlows(since)
		if err != nil {
			h.log.Error("signal query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, series)
	case "MTX":
		series, err := h.calc.MTXSignal(since)
		if err != nil {
			h.log.Error("signal query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, series)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown signal symbol " + symbol})
	}
}

// requestMetrics counts requests by route and status and tracks latency.
func requestMetrics() gin.HandlerFunc {
	requests := metrics.NewCounterVec(prometheus.CounterOpts{
		Name: "fexmine_api_requests_total",
		Help: "API requests by route and status",
	}, []string{"route", "status"})
	latency := metrics.NewHist(prometheus.HistogramOpts{
		Name:    "fexmine_api_request_seconds",
		Help:    "API request latency",
		Buckets: prometheus.DefBuckets,
	})
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		requests.WithLabelValues(c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
		latency.Observe(time.Since(started).Seconds())
	}
}

func SetupRoutes(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestMetrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/candles", h.GetCandles)
	r.GET("/api/signals/:symbol", h.GetSignals)

	return r
}

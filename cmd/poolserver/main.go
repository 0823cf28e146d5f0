// Command poolserver is a small demonstration HTTP front end for the
// pool package: it accepts a task submission over HTTP, runs it on one
// of the four dispatch variants, and serves the resulting Prometheus
// metrics. Grounded on the teacher's web/web.go and
// util/app/gin-plugin (recovery + access-log middleware), with
// correlation ids and responses adapted from util/app/app.go's
// Response/ResponseErr helpers.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flagset "github.com/spf13/pflag"

	"taskpool/internal/config"
	"taskpool/internal/errcode"
	"taskpool/internal/log"
	"taskpool/internal/metrics"
	"taskpool/pool"
)

const requestIDKey = "poolserver.requestId"

func main() {
	configPath := flagset.String("config", "", "path to an optional poolconfig.yaml")
	variant := flagset.String("variant", "", "dispatch variant: spin-shared, blocking-shared, random-per-worker, stealing")
	workers := flagset.Int("workers", 0, "worker count override (0 keeps the config/default value)")
	listen := flagset.String("listen", "", "HTTP listen address override")
	seed := flagset.Int64("seed", 0, "RNG seed override for variants 3 and 4 (0 leaves the config value)")
	flagset.Parse()

	logger := log.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("poolserver: loading config: %v", err)
		os.Exit(1)
	}
	if *variant != "" {
		cfg.Variant = *variant
	}
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	v, err := parseVariant(cfg.Variant)
	if err != nil {
		logger.Errorf("poolserver: %v", err)
		os.Exit(1)
	}

	recorder := metrics.New(metrics.Namespace("poolserver"), metrics.Version("dev"))

	opts := []pool.Option{
		pool.WithVariant(v),
		pool.WithLogger(logger),
		pool.WithMetrics(recorder),
	}
	if cfg.WorkerCount > 0 {
		opts = append(opts, pool.WithWorkerCount(cfg.WorkerCount))
	}
	if cfg.Seed != 0 {
		opts = append(opts, pool.WithSeed(cfg.Seed))
	}

	p, err := pool.New(opts...)
	if err != nil {
		logger.Errorf("poolserver: constructing pool: %v", err)
		os.Exit(1)
	}
	defer p.Close()

	router := newRouter(p, recorder, logger)

	logger.Infof("poolserver: listening on %s, variant=%s", cfg.Listen, v)
	if err := router.Run(cfg.Listen); err != nil {
		logger.Errorf("poolserver: serve: %v", err)
		os.Exit(1)
	}
}

func parseVariant(name string) (pool.Variant, error) {
	switch name {
	case "", "spin-shared":
		return pool.VariantSpinShared, nil
	case "blocking-shared":
		return pool.VariantBlockingShared, nil
	case "random-per-worker":
		return pool.VariantRandomPerWorker, nil
	case "stealing":
		return pool.VariantStealing, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", name)
	}
}

func newRouter(p *pool.Pool, recorder *metrics.Recorder, logger log.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestID(), recovery(logger), accessLog(logger))

	r.POST("/tasks", submitTask(p, logger))
	r.GET("/healthz", healthz())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{})))

	return r
}

// requestID stamps every request with a correlation id, matching the
// teacher's use of a generated id threaded through log fields.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// recovery mirrors util/app/gin-plugin/recovery.go: recover a panicking
// handler, log it, and answer with a 500 instead of crashing the
// process.
func recovery(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				id, _ := c.Get(requestIDKey)
				logger.ErrorK(fmt.Sprint(id), "poolserver: recovered panic handling %s: %v", c.Request.URL.RequestURI(), r)
				c.JSON(http.StatusInternalServerError, errcode.ErrServerInternal.WithDetail(fmt.Sprint(r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// accessLog mirrors util/app/gin-plugin/access_log.go's request/response
// logging, minus the response-body buffering this demo has no use for.
func accessLog(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		id, _ := c.Get(requestIDKey)
		logger.InfoK(fmt.Sprint(id), "%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}

func healthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type taskRequest struct {
	// SleepMillis lets a caller exercise the pool with a task of
	// known duration instead of a trivial no-op.
	SleepMillis int  `json:"sleepMillis"`
	Fail        bool `json:"fail"`
}

type taskResponse struct {
	RequestID string `json:"requestId"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// submitTask demonstrates the full Submit/Get round trip: a request
// body describes a synthetic workload, the handler blocks on the
// returned Handle until the pool finishes it or the client's request
// context is cancelled.
func submitTask(p *pool.Pool, logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, errcode.ErrInvalidParams.WithDetail(err.Error()))
				return
			}
		}

		id, _ := c.Get(requestIDKey)
		requestID := fmt.Sprint(id)

		handle, err := pool.Submit(p, func() (string, error) {
			if req.SleepMillis > 0 {
				time.Sleep(time.Duration(req.SleepMillis) * time.Millisecond)
			}
			if req.Fail {
				return "", fmt.Errorf("task %s: requested failure", requestID)
			}
			return "done", nil
		})
		if err != nil {
			logger.ErrorK(requestID, "poolserver: submit rejected: %v", err)
			c.JSON(http.StatusServiceUnavailable, errcode.ErrPoolUnavailable.WithDetail(err.Error()))
			return
		}

		result, err := handle.Get(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, taskResponse{RequestID: requestID, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, taskResponse{RequestID: requestID, Result: result})
	}
}

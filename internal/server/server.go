package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/llm"
	"github.com/mohammad-safakhou/pestel/internal/scoring"
	"github.com/mohammad-safakhou/pestel/internal/search"
	"github.com/mohammad-safakhou/pestel/internal/search/tavily"
	"github.com/mohammad-safakhou/pestel/internal/store"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// Run wires all dependencies and starts the HTTP server.
func Run(cfg *config.Config) error {
	e := newEcho()

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(tele.Registry(), promhttp.HandlerOpts{})))

	provider, err := llm.NewProvider(cfg.LLM, tele)
	if err != nil {
		return err
	}

	var searcher search.Searcher = tavily.NewClient(cfg.Search, tele)
	if cfg.Search.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Search.Cache.Host, cfg.Search.Cache.Port),
			Password: cfg.Search.Cache.Password,
			DB:       cfg.Search.Cache.DB,
		})
		searcher = search.NewCachedSearcher(searcher, rdb, cfg.Search.Cache.TTL)
	}

	var runStore *store.Store
	if cfg.Storage.Postgres.Configured() {
		runStore, err = store.New(cfg.Storage.Postgres)
		if err != nil {
			return err
		}
	}

	handler := &AnalysisHandler{
		Graph:     analysis.NewGraph(cfg, provider, searcher, tele),
		Scorer:    scoring.NewScorer(provider, cfg.LLM.Routing.Model("scoring")),
		Store:     runStore,
		Snapshots: cfg.Storage.Snapshot,
		Logger:    log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
	handler.Register(e)

	return e.Start(cfg.Server.Address)
}

// newEcho builds the echo instance with middleware and the unified error
// handler shared by production and tests.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"success": false, "error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	return e
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendboard/internal/attendance"
	"attendboard/internal/config"
	"attendboard/internal/hub"
	"attendboard/internal/httpmiddleware"
	"attendboard/internal/insight"
	"attendboard/internal/metrics"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	seed, err := attendance.LoadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	events, people, err := seed.Resolve(time.Now())
	if err != nil {
		return err
	}

	svc := attendance.NewService(logger.Named("attendance"), events, people, cfg.GracePeriod)

	ai := insight.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	if ai.Configured() {
		logger.Info("insight collaborator configured", zap.String("model", ai.Model))
	} else {
		logger.Warn("GEMINI_API_KEY not set, insight analysis unavailable")
	}

	liveHub := hub.New(logger.Named("hub"))
	go liveHub.Run()

	pushView := func(now time.Time) {
		payload, err := json.Marshal(gin.H{
			"type": "attendance:update",
			"payload": gin.H{
				"now":     now,
				"records": svc.BuildView(now),
			},
		})
		if err != nil {
			logger.Error("marshal live view failed", zap.Error(err))
			return
		}
		liveHub.Broadcast(payload)
	}

	// The wall clock drives the displayed state: absence synthesis is a
	// function of time alone, so connected dashboards get a fresh frame
	// every tick even when nothing was mutated.
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			pushView(now)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "insight": ai.Configured()})
	})

	api := r.Group("/api")

	api.GET("/events", func(c *gin.Context) {
		now := time.Now()
		type eventView struct {
			attendance.Event
			Active bool `json:"active"`
		}
		all := svc.Events()
		out := make([]eventView, 0, len(all))
		for _, e := range all {
			out = append(out, eventView{Event: e, Active: e.Active(now)})
		}
		c.JSON(http.StatusOK, gin.H{"events": out, "now": now})
	})

	api.GET("/people", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"people": svc.People()})
	})

	api.GET("/attendance", func(c *gin.Context) {
		now := time.Now()
		c.JSON(http.StatusOK, gin.H{"records": svc.BuildView(now), "now": now})
	})

	api.POST("/checkins", func(c *gin.Context) {
		var req struct {
			PersonID string `json:"person_id" binding:"required"`
			EventID  string `json:"event_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		rec, created, err := svc.CheckIn(req.PersonID, req.EventID, now)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if !created {
			// Duplicate check-ins are an idempotent no-op.
			c.JSON(http.StatusOK, gin.H{"record": rec, "duplicate": true})
			return
		}

		metrics.CheckinsTotal.WithLabelValues(string(rec.Status)).Inc()
		pushView(now)
		c.JSON(http.StatusCreated, gin.H{"record": rec})
	})

	api.POST("/newcomers", func(c *gin.Context) {
		now := time.Now()
		person, rec, err := svc.AdmitNewcomer(now)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		metrics.NewcomersTotal.Inc()
		metrics.CheckinsTotal.WithLabelValues(string(rec.Status)).Inc()
		pushView(now)
		c.JSON(http.StatusCreated, gin.H{"person": person, "record": rec})
	})

	api.POST("/insights", func(c *gin.Context) {
		primaryName := ""
		if primary, ok := svc.PrimaryEvent(); ok {
			primaryName = primary.Name
		}

		result, err := ai.Analyze(c.Request.Context(), svc.People(), svc.Records(), primaryName)
		switch {
		case errors.Is(err, insight.ErrNotConfigured):
			metrics.InsightRequestsTotal.WithLabelValues("unconfigured").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insight analysis is not configured"})
		case errors.Is(err, insight.ErrAnalysisInFlight):
			metrics.InsightRequestsTotal.WithLabelValues("busy").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "an analysis is already running"})
		case err != nil:
			logger.Error("insight analysis failed", zap.Error(err))
			metrics.InsightRequestsTotal.WithLabelValues("error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get a valid response from the model"})
		default:
			metrics.InsightRequestsTotal.WithLabelValues("ok").Inc()
			if result == nil {
				result = []insight.AtRiskMember{}
			}
			c.JSON(http.StatusOK, gin.H{"at_risk_members": result})
		}
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	r.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := hub.NewClient(liveHub, conn)
		liveHub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	r.StaticFile("/", "web/index.html")

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

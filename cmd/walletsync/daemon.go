package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/sync"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background synchronizer with an HTTP control surface",
		Long: "Runs sync cycles on a timer and exposes a small HTTP API to trigger\n" +
			"a cycle (POST /api/sync) and inspect sync state (GET /api/status).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runDaemon(a)
		},
	}
}

func runDaemon(a *app) error {
	log := a.log

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/api/sync", func(c *gin.Context) {
		pending, err := a.orch.RunCycle(a.ctx(), sync.CycleRequest{
			Tag:        "webhook",
			AutoPush:   true,
			Categorize: a.cfg.Sync.CategorizeIncoming,
		})
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending": pending})
	})

	router.GET("/api/status", func(c *gin.Context) {
		ctx := c.Request.Context()

		pending, err := a.store.CountTransactionsByState(ctx, domain.SyncStatePending)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		failed, err := a.store.CountTransactionsByState(ctx, domain.SyncStateNever)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		uncategorized, err := a.store.CountUnmappedCategories(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		trail, err := a.store.ListCycleLog(ctx, 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"pending":       pending,
			"failed":        failed,
			"uncategorized": uncategorized,
			"recent_cycles": trail,
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Daemon.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", a.cfg.Daemon.Port).Msg("Starting daemon API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start daemon API")
		}
	}()

	interval := time.Duration(a.cfg.Daemon.IntervalMinutes) * time.Minute
	tickerCtx, cancelTicker := context.WithCancel(a.ctx())
	defer cancelTicker()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("Starting sync timer")
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				_, err := a.orch.RunCycle(tickerCtx, sync.CycleRequest{
					Tag:        "timer",
					AutoPush:   a.cfg.Sync.AutoImport,
					Categorize: a.cfg.Sync.CategorizeIncoming,
				})
				if err != nil {
					log.Error().Err(err).Msg("Timed sync cycle failed")
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down daemon...")
	cancelTicker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("daemon shutdown: %w", err)
	}

	log.Info().Msg("Daemon exited")
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vnkhanh/dbsec-lab/config"
	"github.com/vnkhanh/dbsec-lab/controllers"
	"github.com/vnkhanh/dbsec-lab/logging"
	"github.com/vnkhanh/dbsec-lab/middleware"
	"github.com/vnkhanh/dbsec-lab/oops"
	"github.com/vnkhanh/dbsec-lab/routes"
	"github.com/vnkhanh/dbsec-lab/services"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
	"github.com/vnkhanh/dbsec-lab/ws"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if cfg.IsProduction() {
		if cfg.SecretKey == config.DefaultSecretKey {
			return errors.New("SECRET_KEY must be set in production")
		}
		gin.SetMode(gin.ReleaseMode)
	}

	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	objects, err := utils.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		return oops.New(err, "failed to set up %s object store", cfg.Storage.Backend)
	}

	handler := &controllers.Handler{
		Contents:       store.NewContentStore(db),
		Users:          store.NewUserStore(db),
		Objects:        objects,
		Tokens:         utils.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL),
		Hub:            ws.NewHub(),
		Ping:           func(ctx context.Context) error { return store.Ping(ctx, db) },
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		AllowedOrigins: cfg.CORSAllowOrigins,
		Logger:         *logging.GlobalLogger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	routes.SetupRouter(r, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	orphanJob := services.StartOrphanReportJob(ctx, handler.Contents, 6*time.Hour, handler.Logger)
	defer func() {
		stop()
		<-orphanJob
	}()

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server running")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return oops.New(err, "server shut down unexpectedly")
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.New(err, "graceful shutdown failed")
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"soulfamily/sounds-api/app"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the maintenance jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 8080, "port to listen on")

	return cmd
}

func serve(parent context.Context) error {
	if v.GetString("app.log_level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDeps(ctx)
	if err != nil {
		return err
	}

	routerCfg, err := app.NewRouterConfig(ctx)
	if err != nil {
		return err
	}

	scheduler, err := service.NewScheduler(d.DB, service.ScheduleConfig{
		TokenCleanup:     v.GetString("schedule.token_cleanup"),
		CounterReconcile: v.GetString("schedule.counter_reconcile"),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", v.GetInt("host.port")),
		Handler:           app.NewRouter(ctx, d, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		zap.L().Info("Shutting down")
		scheduler.Stop(shutdownCtx)

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/webservice"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored resilience results over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	b, err := openBackends(ctx, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.loader == nil {
		return errNoStore
	}

	srv := &http.Server{
		Addr:    viper.GetString("addr"),
		Handler: webservice.New(b.loader, logger).Router(),
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

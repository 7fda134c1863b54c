package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chrisboulton/pdfhelper-go/internal/mockapi"
)

func (a *app) mockServerCmd() *cobra.Command {
	var (
		addr  string
		docs  []string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a fake backend for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)

			backend := mockapi.New(
				mockapi.WithDocuments(docs...),
				mockapi.WithFragmentDelay(delay),
				mockapi.WithLogger(a.logger),
			)

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrap(err, "listen")
			}
			srv := &http.Server{
				Handler:           backend.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cmd.Context()
			eg, egCtx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				a.logger.Info().Str("addr", ln.Addr().String()).Msg("mock server listening")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				a.logger.Info().Msg("mock server shutting down")
				return srv.Shutdown(shutdownCtx)
			})

			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringSliceVar(&docs, "document", nil, "seed a document name (repeatable)")
	cmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "pause between streamed words")
	return cmd
}

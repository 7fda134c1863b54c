package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisboulton/pdfhelper-go"
)

// uploadTimeout caps uploads when no http_timeout is configured.
const uploadTimeout = 10 * time.Minute

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload one or more PDFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			timeout := a.cfg.HTTPTimeout
			if timeout <= 0 {
				timeout = uploadTimeout
			}

			uploader := pdfhelper.NewUploader(client)
			defer uploader.Close()

			for _, path := range args {
				uploader.Select(path)

				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				result, err := uploader.Upload(ctx)
				cancel()
				if err != nil {
					a.logger.Error().Err(err).Str("file", path).Msg(uploader.Err())
					return err
				}

				a.logger.Debug().Str("file", path).Str("reply", result.Message).Msg("upload done")
				fmt.Fprintf(cmd.OutOrStdout(), "%s: PDF uploaded successfully!\n", path)
			}
			return nil
		},
	}
}

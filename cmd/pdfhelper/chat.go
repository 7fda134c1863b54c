package main

import (
	"github.com/spf13/cobra"

	"github.com/chrisboulton/pdfhelper-go/internal/tui"
)

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), client, tui.Options{
				SessionOptions:     a.cfg.SessionOptions(),
				CompletionMarker:   a.cfg.CompletionMarker,
				UploadSuccessDelay: a.cfg.UploadSuccessDelay,
				Logger:             a.logger,
			})
		},
	}
}

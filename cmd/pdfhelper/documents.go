package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrisboulton/pdfhelper-go"
)

const noDocuments = "No documents available. Upload a PDF to get started."

func (a *app) documentsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "ls"},
		Short:   "List uploaded documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			lister := pdfhelper.NewLister(client)
			docs, err := lister.Refresh(ctx)
			if err != nil {
				a.logger.Error().Err(err).Msg(lister.Err())
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(docs)
			}

			if lister.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), noDocuments)
				return nil
			}
			for _, d := range docs {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as a JSON array")
	return cmd
}

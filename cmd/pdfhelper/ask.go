package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chrisboulton/pdfhelper-go"
	"github.com/chrisboulton/pdfhelper-go/internal/tui"
)

func (a *app) askCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			client, err := a.newClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			chat, err := client.OpenChat(ctx, a.cfg.SessionOptions()...)
			if err != nil {
				a.logger.Error().Err(err).Msg(pdfhelper.MsgConnectionError)
				return err
			}
			defer chat.Close()

			stream, err := chat.Send(ctx, question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pretty := !raw && isatty.IsTerminal(os.Stdout.Fd())

			if !pretty {
				for fragment, err := range stream.Chunks(ctx) {
					if err != nil {
						return answerError(err, chat)
					}
					fmt.Fprint(out, fragment.Text)
				}
				fmt.Fprintln(out)
				a.logResult(stream)
				return nil
			}

			text, err := stream.Text(ctx)
			if err != nil {
				return answerError(err, chat)
			}
			a.logResult(stream)

			body := text
			cites := pdfhelper.CitationsAfter(text, a.cfg.CompletionMarker)
			if len(cites) > 0 {
				body = text[:strings.LastIndex(text, a.cfg.CompletionMarker)]
			}

			rendered, err := glamour.Render(body, tui.MarkdownStyle())
			if err != nil {
				rendered = body + "\n"
			}
			fmt.Fprint(out, rendered)
			if len(cites) > 0 {
				fmt.Fprintf(out, "Sources: %s\n", strings.Join(cites, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "stream the raw answer even on a terminal")
	return cmd
}

func (a *app) logResult(stream *pdfhelper.AnswerStream) {
	if r := stream.Result(); r.TimedOut {
		a.logger.Warn().Str("message", r.MessageID).Msg("answer incomplete, response timeout reached")
	}
}

func answerError(err error, chat *pdfhelper.ChatSession) error {
	if msg := chat.Err(); msg != "" {
		return errors.Wrap(err, msg)
	}
	return err
}

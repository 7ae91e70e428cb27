// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
)

// =============================================================================
// ONE-SHOT COMMANDS
// =============================================================================

// withRuntime runs fn against a non-interactive session and closes it.
func (a *App) withRuntime(ctx context.Context, fn func(rt *Runtime) error) (err error) {
	rt, err := a.newRuntime(ctx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close())
	}()
	return fn(rt)
}

// documentInfo is the JSON form of the attachment slot.
type documentInfo struct {
	HasPDF      bool   `json:"has_pdf"`
	Name        string `json:"name,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

func documentInfoOf(st attachment.State) documentInfo {
	if !st.Attached() || st.Document == nil {
		return documentInfo{}
	}
	return documentInfo{
		HasPDF:      true,
		Name:        st.Document.Name,
		Size:        st.Document.Size,
		Placeholder: st.Document.Placeholder,
	}
}

// lastSystemText returns the newest system message, if any.
func lastSystemText(snap session.Snapshot) string {
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].Sender == model.SenderSystem {
			return snap.Messages[i].Text
		}
	}
	return ""
}

func (a *App) askCommand() *cobra.Command {
	var pdf string
	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Example: `  tensorchat ask "What is a tensor?"
  tensorchat ask --pdf report.pdf "Summarize the findings"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				return OutputJSON(out, a.jsonOutput, "ask", func() (interface{}, error) {
					if pdf != "" {
						if err := rt.Ctrl.Intake(cmd.Context(), pdf); err != nil {
							return nil, err
						}
					}
					if err := rt.Ctrl.Send(cmd.Context(), message); err != nil {
						return nil, err
					}
					reply, _ := rt.Ctrl.Snapshot().LastMessage()
					if !a.jsonOutput {
						fmt.Fprintln(out, reply.Text)
					}
					return map[string]interface{}{
						"reply":    reply.Text,
						"document": documentInfoOf(rt.Ctrl.Attachment()),
					}, nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&pdf, "pdf", "", "attach this PDF before asking")
	return cmd
}

func (a *App) uploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Attach a PDF to the backend session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				return OutputJSON(out, a.jsonOutput, "upload", func() (interface{}, error) {
					if err := rt.Ctrl.Intake(cmd.Context(), args[0]); err != nil {
						return nil, err
					}
					if !a.jsonOutput {
						fmt.Fprintln(out, SuccessStyle.Render(lastSystemText(rt.Ctrl.Snapshot())))
					}
					return documentInfoOf(rt.Ctrl.Attachment()), nil
				})
			})
		},
	}
}

func (a *App) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the attached PDF from the backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				return OutputJSON(out, a.jsonOutput, "remove", func() (interface{}, error) {
					// Learn what the backend holds before removing it.
					if _, err := rt.Ctrl.CheckAttachment(cmd.Context()); err != nil {
						return nil, err
					}
					if err := rt.Ctrl.Remove(cmd.Context()); err != nil {
						return nil, err
					}
					if !a.jsonOutput {
						fmt.Fprintln(out, lastSystemText(rt.Ctrl.Snapshot()))
					}
					return documentInfoOf(rt.Ctrl.Attachment()), nil
				})
			})
		},
	}
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the backend session holds a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				return OutputJSON(out, a.jsonOutput, "status", func() (interface{}, error) {
					st, err := rt.Ctrl.CheckAttachment(cmd.Context())
					if err != nil {
						return nil, err
					}
					if !a.jsonOutput {
						fmt.Fprintln(out, RenderLabel("Backend", a.Config.Backend.BaseURL))
						fmt.Fprintln(out, RenderLabel("Document", st.Label()))
					}
					return documentInfoOf(st), nil
				})
			})
		},
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tensorchat/internal/storage"
	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

func (a *App) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Browse saved conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.historyList(cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(a.historyListCommand())
	cmd.AddCommand(a.historyShowCommand())
	cmd.AddCommand(a.historySearchCommand())
	cmd.AddCommand(a.historyDeleteCommand())
	return cmd
}

func (a *App) transcriptStore() (*storage.TranscriptStore, error) {
	store, err := storage.NewTranscriptStore(a.Config.Storage.TranscriptsDir)
	if err != nil {
		return nil, err
	}
	store.MaxTranscripts = a.Config.Storage.MaxTranscripts
	return store, nil
}

func (a *App) historyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.historyList(cmd.OutOrStdout())
		},
	}
}

func (a *App) historyList(out io.Writer) error {
	return OutputJSON(out, a.jsonOutput, "history list", func() (interface{}, error) {
		store, err := a.transcriptStore()
		if err != nil {
			return nil, err
		}
		metas, err := store.List()
		if err != nil {
			return nil, err
		}
		if !a.jsonOutput {
			fmt.Fprintln(out, storage.FormatList(metas))
		}
		if metas == nil {
			metas = []storage.TranscriptMeta{}
		}
		return metas, nil
	})
}

func (a *App) historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Print a conversation as Markdown",
		Long: `Print a saved conversation. The reference is a position from
"history list", a full transcript ID, or a unique ID prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return OutputJSON(out, a.jsonOutput, "history show", func() (interface{}, error) {
				store, err := a.transcriptStore()
				if err != nil {
					return nil, err
				}
				t, err := store.Resolve(args[0])
				if err != nil {
					return nil, err
				}
				if !a.jsonOutput {
					fmt.Fprint(out, t.ExportMarkdown())
				}
				return t, nil
			})
		},
	}
}

// searchHit is one archive match in JSON output.
type searchHit struct {
	Transcript string `json:"transcript"`
	Sender     string `json:"sender"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
}

func (a *App) historySearchCommand() *cobra.Command {
	var (
		titles bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message text across saved conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if titles {
				return OutputJSON(out, a.jsonOutput, "history search", func() (interface{}, error) {
					store, err := a.transcriptStore()
					if err != nil {
						return nil, err
					}
					metas, err := store.Search(args[0])
					if err != nil {
						return nil, err
					}
					if !a.jsonOutput {
						fmt.Fprintln(out, storage.FormatList(metas))
					}
					return metas, nil
				})
			}

			return OutputJSON(out, a.jsonOutput, "history search", func() (interface{}, error) {
				archive, err := storage.OpenArchive(a.Config.Storage.ArchivePath)
				if err != nil {
					return nil, err
				}
				defer archive.Close()

				found, err := archive.Search(cmd.Context(), args[0], limit)
				if err != nil {
					return nil, err
				}
				hits := make([]searchHit, 0, len(found))
				for _, f := range found {
					hits = append(hits, searchHit{
						Transcript: f.SessionID,
						Sender:     f.Message.Sender.String(),
						Text:       f.Message.Text,
						Timestamp:  f.Message.CreatedAt.Format("2006-01-02 15:04"),
					})
				}
				if !a.jsonOutput {
					printSearchHits(out, hits)
				}
				return hits, nil
			})
		},
	}
	cmd.Flags().BoolVar(&titles, "titles", false, "match conversation titles and previews instead of messages")
	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultSearchLimit, "maximum number of matches")
	return cmd
}

func printSearchHits(out io.Writer, hits []searchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(out, "No matches.")
		return
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%s  %s  %s\n",
			DimStyle.Render(h.Timestamp),
			util.PadRight(h.Sender, 7),
			util.TruncateWidth(util.FirstLine(h.Text), 60))
		fmt.Fprintln(out, DimStyle.Render("    in "+h.Transcript))
	}
}

func (a *App) historyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return OutputJSON(out, a.jsonOutput, "history delete", func() (interface{}, error) {
				store, err := a.transcriptStore()
				if err != nil {
					return nil, err
				}
				t, err := store.Resolve(args[0])
				if err != nil {
					return nil, err
				}
				if err := store.Delete(t.ID); err != nil {
					return nil, err
				}

				var archiveErr error
				if archive, err := storage.OpenArchive(a.Config.Storage.ArchivePath); err == nil {
					archiveErr = errors.Join(archive.DeleteSession(cmd.Context(), t.ID), archive.Close())
				}
				if archiveErr != nil {
					a.Logger.Sugar().Warnf("archive cleanup for %s failed: %v", t.ID, archiveErr)
				}

				if !a.jsonOutput {
					fmt.Fprintln(out, SuccessStyle.Render("Deleted "+t.ID))
				}
				return map[string]string{"id": t.ID}, nil
			})
		},
	}
}

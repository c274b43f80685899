package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/problem-archiver/internal/app"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what earlier runs archived and what failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := app.New(settings, logger).OpenStore()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Progress: "+store.Path()))
			if updated := store.LastUpdated(); !updated.IsZero() {
				fmt.Fprintln(out, dimStyle.Render("Last updated "+updated.Local().Format("2006-01-02 15:04:05")))
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Completed: %d", len(store.Completed()))))

			failed := store.Failed()
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Failed:    %d", len(failed))))
			ids := make([]int, 0, len(failed))
			for id := range failed {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			for _, id := range ids {
				f := failed[id]
				fmt.Fprintf(out, "  %04d %s: %s\n", id, f.Slug, strings.Join(f.Reasons, "; "))
			}
			return nil
		},
	}
}

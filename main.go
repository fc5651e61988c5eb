// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bep/gitfresh/internal/lib"
	"github.com/spf13/cobra"
)

// errSyncFailed signals a failed pull. The checker has already reported it.
var errSyncFailed = errors.New("sync failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSyncFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg lib.Config

	cmd := &cobra.Command{
		Use:   "gitfresh [dir]",
		Short: "Fast-forward a git checkout when it is behind its upstream",
		Long: `Fetch from the upstream of the current branch and compare.

If the checkout is behind and has no local commits, it is fast-forwarded with
git pull --ff-only. If it has commits of its own, nothing is changed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			cfg.Dir = abs

			outcome, err := lib.Run(cfg)
			if err != nil {
				return err
			}
			if outcome.Kind == lib.SyncFailed {
				return errSyncFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.Check, "check", false, "report status only, never pull")
	cmd.Flags().BoolVar(&cfg.Quiet, "quiet", false, "suppress all output")

	return cmd
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type killswitchResult struct {
	MatchingEnabled bool `json:"matching_enabled"`
	Overridden      bool `json:"overridden"`
}

func newKillswitchCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "killswitch",
		Short: "Inspect or override fingerprint matching at runtime",
		Long: `Running services read the override on every find request.

  on      enable matching
  off     disable matching; find requests answer {"match": false}
  reset   drop the override and fall back to MATCH_FINGERPRINTS
  status  print the effective value`,
	}
	cmd.AddCommand(newKillswitchSetCommand(opts, "on", "Enable matching", func(ctx context.Context, s *session) error {
		return s.flags.SetMatchingEnabled(ctx, true)
	}))
	cmd.AddCommand(newKillswitchSetCommand(opts, "off", "Disable matching", func(ctx context.Context, s *session) error {
		return s.flags.SetMatchingEnabled(ctx, false)
	}))
	cmd.AddCommand(newKillswitchSetCommand(opts, "reset", "Remove the runtime override", func(ctx context.Context, s *session) error {
		return s.flags.ClearMatchingOverride(ctx)
	}))
	cmd.AddCommand(newKillswitchSetCommand(opts, "status", "Print the effective value", nil))
	return cmd
}

func newKillswitchSetCommand(opts *RootOptions, use, short string, apply func(context.Context, *session) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if apply != nil {
				if err := apply(cmd.Context(), s); err != nil {
					return err
				}
			}
			enabled, overridden, err := s.flags.MatchingOverride(cmd.Context())
			if err != nil {
				return err
			}
			res := killswitchResult{MatchingEnabled: enabled, Overridden: overridden}
			if opts.Format == "json" {
				return writeJSON(cmd, res)
			}
			source := "default"
			if overridden {
				source = "override"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "matching enabled: %t (%s)\n", enabled, source)
			return nil
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/cache"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

func newFetchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <id>",
		Short: "Print a stored deferred deeplink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, verr := domain.ParseDeeplinkID(args[0])
			if verr != nil {
				return verr
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			record, err := s.store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd, record)
			}
			matched := "never"
			if record.MatchedAt != nil {
				matched = record.MatchedAt.String()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:          %s\n", record.ID)
			fmt.Fprintf(out, "application: %s\n", record.ApplicationID)
			fmt.Fprintf(out, "action:      %s\n", record.Action)
			fmt.Fprintf(out, "signals:     ip=%s os=%s os_version=%s\n", record.Signals.IP, record.Signals.OS, record.Signals.OSVersion)
			fmt.Fprintf(out, "created_at:  %s\n", record.CreatedAt)
			fmt.Fprintf(out, "matched_at:  %s\n", matched)
			return nil
		},
	}
}

type queueResult struct {
	Fingerprint string `json:"fingerprint"`
	Key         string `json:"key"`
	Length      int64  `json:"length"`
}

func newQueueCommand(opts *RootOptions) *cobra.Command {
	flags := &signalFlags{}
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show how many candidates are queued for a set of signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			_, digest := flags.fingerprint()
			n, err := s.store.QueueLen(cmd.Context(), digest)
			if err != nil {
				return err
			}
			res := queueResult{Fingerprint: digest, Key: cache.FingerprintKey(digest), Length: n}
			if opts.Format == "json" {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", res.Key, res.Length)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

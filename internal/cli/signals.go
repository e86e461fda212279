package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

type signalFlags struct {
	ApplicationID string
	IP            string
	OS            string
	OSVersion     string
}

func (f *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ApplicationID, "app", "", "application id (required)")
	_ = cmd.MarkFlagRequired("app")
	cmd.Flags().StringVar(&f.IP, "ip", "", "device ip (required)")
	_ = cmd.MarkFlagRequired("ip")
	cmd.Flags().StringVar(&f.OS, "os", "", "device os")
	cmd.Flags().StringVar(&f.OSVersion, "os-version", "", "device os version")
}

func (f *signalFlags) fingerprint() (domain.Signals, string) {
	signals := domain.NormalizeSignals(domain.Signals{IP: f.IP, OS: f.OS, OSVersion: f.OSVersion})
	return signals, domain.Fingerprint(f.ApplicationID, signals)
}

type fingerprintResult struct {
	ApplicationID string         `json:"application_id"`
	Signals       domain.Signals `json:"signals"`
	Fingerprint   string         `json:"fingerprint"`
}

func newFingerprintCommand(opts *RootOptions) *cobra.Command {
	flags := &signalFlags{}
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the fingerprint a set of signals maps to",
		Long: `Normalize the given signals and print the resulting fingerprint digest.

Examples:
  ddlctl fingerprint --app test-app-id --ip 1.1.1.1 --os iOS --os-version 6.0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signals, digest := flags.fingerprint()
			if opts.Format == "json" {
				return writeJSON(cmd, fingerprintResult{
					ApplicationID: flags.ApplicationID,
					Signals:       signals,
					Fingerprint:   digest,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

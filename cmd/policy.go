//go:build linux

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// CreatePolicyCmd creates the policy command.
func CreatePolicyCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Negotiate and print the conversion policy",
		Long: `Detects the platform, applies the preferred format, enumerates the device ` +
			`and prints the policy frames from this camera would be converted with.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := flags.logger("cli")

			session, err := flags.openSession(context.Background(), logger)
			if err != nil {
				return fail(logger, "Failed to negotiate format", err)
			}
			defer session.Close()

			printDecision(os.Stdout, session.Platform(), session.Decision())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

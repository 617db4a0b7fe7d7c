package cmd

import (
	"github.com/spf13/cobra"
)

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage hosted zones",
}

var zoneCreateCmd = &cobra.Command{
	Use:   "create DOMAIN",
	Short: "Create a hosted zone for DOMAIN and print its ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}

		zoneID, err := m.CreateHostedZone(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, map[string]string{
			"domain":  args[0],
			"zone_id": zoneID,
			"backend": m.Backend(),
		})
	},
}

func init() {
	zoneCmd.AddCommand(zoneCreateCmd)
}

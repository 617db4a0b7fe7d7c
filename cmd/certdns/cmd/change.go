package cmd

import (
	"github.com/spf13/cobra"
)

var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Inspect submitted record changes",
}

var changeStatusCmd = &cobra.Command{
	Use:   "status CHANGE_ID",
	Short: "Print the current propagation status of a change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}

		change, err := m.GetChange(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, change)
	},
}

var changeWaitCmd = &cobra.Command{
	Use:   "wait CHANGE_ID...",
	Short: "Poll changes until they are in sync, failed or timed out",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}

		results, err := newWaiter(m).WaitAll(cmd.Context(), args)
		if printErr := printResult(cmd, results); printErr != nil {
			return printErr
		}
		return err
	},
}

func init() {
	changeCmd.AddCommand(changeStatusCmd, changeWaitCmd)
}

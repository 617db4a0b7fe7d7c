package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/netguru/certdns/internal/dnschange"
	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

var (
	waitForSync bool
	bestEffort  bool
	batchFile   string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Create, replace and delete DNS records in the configured zone",
}

var recordUpsertCmd = &cobra.Command{
	Use:   "upsert TYPE NAME VALUE",
	Short: "Create or replace a record and print the change ID",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}

		changeID, err := m.UpsertRecord(cmd.Context(), requestFromArgs(args))
		if err != nil {
			return err
		}
		return reportChanges(cmd, m, []string{changeID})
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete TYPE NAME VALUE",
	Short: "Delete a record and print the change ID",
	Long:  "Delete a record. VALUE must match the live value. With --best-effort a record that is already gone is not an error.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}
		req := requestFromArgs(args)

		if !bestEffort {
			changeID, err := m.DeleteRecord(cmd.Context(), req)
			if err != nil {
				return err
			}
			return reportChanges(cmd, m, []string{changeID})
		}

		changeID, deleted, err := m.DeleteRecordIfExists(cmd.Context(), req)
		if err != nil {
			return err
		}
		if !deleted {
			return printResult(cmd, map[string]any{"name": req.Name, "deleted": false})
		}
		return reportChanges(cmd, m, []string{changeID})
	},
}

var recordApplyCmd = &cobra.Command{
	Use:   "apply -f FILE",
	Short: "Submit the record changes listed in a YAML file",
	Long: `Submit the record changes listed in a YAML file, one change per entry:

  - action: UPSERT
    type: TXT
    name: acme-challenge.api.example.com.
    value: '"token"'

action defaults to UPSERT. Every entry is validated before anything is submitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openBatch(cmd)
		if err != nil {
			return err
		}
		defer in.Close()

		entries, err := parseBatch(in)
		if err != nil {
			return err
		}

		m, err := dnsManager(cmd.Context())
		if err != nil {
			return err
		}

		changeIDs, err := applyBatch(cmd.Context(), m, entries)
		if err != nil {
			return err
		}
		return reportChanges(cmd, m, changeIDs)
	},
}

// batchEntry is one change of a batch file.
type batchEntry struct {
	Action                    dns.Action `yaml:"action"`
	dns.RecordMutationRequest `yaml:",inline"`
}

func requestFromArgs(args []string) dns.RecordMutationRequest {
	return dns.RecordMutationRequest{
		Type:  dns.RecordType(strings.ToUpper(args[0])),
		Name:  args[1],
		Value: args[2],
	}
}

func openBatch(cmd *cobra.Command) (io.ReadCloser, error) {
	if batchFile == "" {
		return nil, fmt.Errorf("a batch file is required (-f FILE, or -f - for stdin)")
	}
	if batchFile == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(batchFile)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	return f, nil
}

// parseBatch decodes and validates a batch file without touching the network.
func parseBatch(r io.Reader) ([]batchEntry, error) {
	var entries []batchEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode batch file: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		if e.Action == "" {
			e.Action = dns.ActionUpsert
		}
		e.Action = dns.Action(strings.ToUpper(string(e.Action)))
		e.Type = dns.RecordType(strings.ToUpper(string(e.Type)))

		if !e.Action.Valid() {
			return nil, fmt.Errorf("entry %d (%s): %w", i+1, e.Name, errors.ErrUnknownAction)
		}
		if err := dns.ValidateRequest(e.RecordMutationRequest); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i+1, e.Name, err)
		}
	}
	return entries, nil
}

// applyBatch submits entries in order and stops at the first rejected change.
func applyBatch(ctx context.Context, m *dnschange.Manager, entries []batchEntry) ([]string, error) {
	changeIDs := make([]string, 0, len(entries))
	for i, e := range entries {
		changeID, err := m.SubmitChange(ctx, e.Action, e.RecordMutationRequest, m.ZoneID())
		if err != nil {
			logger.Warn("Batch stopped",
				zap.Int("entry", i+1),
				zap.Int("submitted", len(changeIDs)),
				zap.Error(err))
			return changeIDs, fmt.Errorf("entry %d (%s %s): %w", i+1, e.Action, e.Name, err)
		}
		changeIDs = append(changeIDs, changeID)
	}
	return changeIDs, nil
}

// reportChanges prints the submitted change IDs, or with --wait their
// propagation results.
func reportChanges(cmd *cobra.Command, m *dnschange.Manager, changeIDs []string) error {
	if !waitForSync {
		return printResult(cmd, map[string][]string{"change_ids": changeIDs})
	}

	results, err := newWaiter(m).WaitAll(cmd.Context(), changeIDs)
	if printErr := printResult(cmd, results); printErr != nil {
		return printErr
	}
	return err
}

func init() {
	recordCmd.PersistentFlags().BoolVar(&waitForSync, "wait", false, "Wait until the submitted changes are in sync")
	recordDeleteCmd.Flags().BoolVar(&bestEffort, "best-effort", false, "Treat a record that is already gone as deleted")
	recordApplyCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML batch file, - for stdin")

	recordCmd.AddCommand(recordUpsertCmd, recordDeleteCmd, recordApplyCmd)
}

package cmd

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/netguru/certdns/internal/certflow"
	"github.com/netguru/certdns/internal/certificate"
	"github.com/netguru/certdns/pkg/dns"
)

var (
	showKey       bool
	recordType    string
	certFile      string
	keyFile       string
	orderURL      string
	validFromFlag string
	validToFlag   string
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Track certificates and publish their validation records",
}

var certRequestCmd = &cobra.Command{
	Use:   "request USERNAME DOMAIN",
	Short: "Record a pending certificate for DOMAIN",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}
		svc := certflow.NewService(logger, r, nil, nil)

		c, err := svc.Request(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printResult(cmd, newCertView(c))
	},
}

var certGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Print a certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}

		c, err := r.GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printResult(cmd, newCertView(c))
	},
}

var certLatestCmd = &cobra.Command{
	Use:   "latest USERNAME",
	Short: "Print the most recently issued certificate of USERNAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}
		svc := certflow.NewService(logger, r, nil, nil)

		c, err := svc.Latest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, newCertView(c))
	},
}

var certIssuedCmd = &cobra.Command{
	Use:   "issued ID --cert-file FILE --key-file FILE",
	Short: "Store the issued certificate and key and mark the certificate issued",
	Long:  "Store the issued certificate and key. The validity period is read from the certificate unless --valid-from and --valid-to are given (RFC 3339).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		issued, err := loadIssued()
		if err != nil {
			return err
		}

		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}
		svc := certflow.NewService(logger, r, nil, nil)

		c, err := svc.MarkIssued(cmd.Context(), id, issued)
		if err != nil {
			return err
		}
		return printResult(cmd, newCertView(c))
	},
}

var certPublishCmd = &cobra.Command{
	Use:   "publish ID NAME VALUE",
	Short: "Publish a validation record for a certificate and wait until it is in sync",
	Long: `Publish a domain validation record for a certificate and wait until it is in sync.

NAME must pass the record name rules: lowercase letters, digits and hyphens
only, so underscore owner names such as _acme-challenge are rejected and the
certificate is marked failed.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		svc, err := certService(cmd.Context())
		if err != nil {
			return err
		}

		res, err := svc.PublishRecord(cmd.Context(), id, certRecord(args))
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

var certRetractCmd = &cobra.Command{
	Use:   "retract ID NAME VALUE",
	Short: "Remove a validation record of a certificate if it is still present",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		svc, err := certService(cmd.Context())
		if err != nil {
			return err
		}

		return svc.RetractRecord(cmd.Context(), id, certRecord(args))
	},
}

var certDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}
		return r.DeleteByID(cmd.Context(), id)
	},
}

var certCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored certificates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := certificateRepository(cmd.Context())
		if err != nil {
			return err
		}
		n, err := r.Count(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(cmd, map[string]int64{"count": n})
	},
}

// certView is the printed form of a certificate.
type certView struct {
	ID          int64      `yaml:"id"`
	Username    string     `yaml:"username"`
	Domain      string     `yaml:"domain"`
	Status      string     `yaml:"status"`
	OrderURL    string     `yaml:"order_url,omitempty"`
	ValidFrom   *time.Time `yaml:"valid_from,omitempty"`
	ValidTo     *time.Time `yaml:"valid_to,omitempty"`
	Certificate string     `yaml:"certificate,omitempty"`
	PrivateKey  string     `yaml:"private_key,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

func newCertView(c *certificate.Certificate) certView {
	v := certView{
		ID:          c.ID,
		Username:    c.Username,
		Domain:      c.Domain,
		Status:      string(c.Status),
		OrderURL:    c.OrderURL,
		ValidFrom:   c.ValidFrom,
		ValidTo:     c.ValidTo,
		Certificate: c.Certificate,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if showKey {
		v.PrivateKey = c.PrivateKey
	}
	return v
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid certificate ID %q", s)
	}
	return id, nil
}

func certRecord(args []string) dns.RecordMutationRequest {
	return dns.RecordMutationRequest{
		Type:  dns.RecordType(strings.ToUpper(recordType)),
		Name:  args[1],
		Value: args[2],
	}
}

// loadIssued reads the certificate and key files given on the command line.
func loadIssued() (certflow.Issued, error) {
	if certFile == "" || keyFile == "" {
		return certflow.Issued{}, fmt.Errorf("--cert-file and --key-file are required")
	}

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return certflow.Issued{}, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return certflow.Issued{}, fmt.Errorf("read private key: %w", err)
	}

	issued := certflow.Issued{
		OrderURL:    orderURL,
		Certificate: string(certPEM),
		PrivateKey:  string(keyPEM),
	}

	if validFromFlag != "" || validToFlag != "" {
		if issued.ValidFrom, err = time.Parse(time.RFC3339, validFromFlag); err != nil {
			return certflow.Issued{}, fmt.Errorf("--valid-from: %w", err)
		}
		if issued.ValidTo, err = time.Parse(time.RFC3339, validToFlag); err != nil {
			return certflow.Issued{}, fmt.Errorf("--valid-to: %w", err)
		}
		return issued, nil
	}

	issued.ValidFrom, issued.ValidTo, err = validity(certPEM)
	if err != nil {
		return certflow.Issued{}, err
	}
	return issued, nil
}

// validity returns the validity period of the first certificate in a PEM bundle.
func validity(certPEM []byte) (time.Time, time.Time, error) {
	rest := certPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("no certificate found in PEM data")
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse certificate: %w", err)
		}
		return c.NotBefore, c.NotAfter, nil
	}
}

func init() {
	certCmd.PersistentFlags().BoolVar(&showKey, "show-key", false, "Include the private key in the output")
	for _, c := range []*cobra.Command{certPublishCmd, certRetractCmd} {
		c.Flags().StringVar(&recordType, "type", string(dns.RecordTypeTXT), "Record type")
	}
	certIssuedCmd.Flags().StringVar(&certFile, "cert-file", "", "PEM encoded certificate (chain)")
	certIssuedCmd.Flags().StringVar(&keyFile, "key-file", "", "PEM encoded private key")
	certIssuedCmd.Flags().StringVar(&orderURL, "order-url", "", "ACME order URL")
	certIssuedCmd.Flags().StringVar(&validFromFlag, "valid-from", "", "Start of the validity period (RFC 3339)")
	certIssuedCmd.Flags().StringVar(&validToFlag, "valid-to", "", "End of the validity period (RFC 3339)")

	certCmd.AddCommand(
		certRequestCmd,
		certGetCmd,
		certLatestCmd,
		certIssuedCmd,
		certPublishCmd,
		certRetractCmd,
		certDeleteCmd,
		certCountCmd,
	)
}

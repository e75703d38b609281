// Package cli maps the four commands onto the store, issuer and inspector.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voslund/camint/internal/castore"
	"github.com/voslund/camint/internal/inspect"
	"github.com/voslund/camint/internal/issuer"
	"github.com/voslund/camint/internal/logging"
	"github.com/voslund/camint/pkg/pki"
)

var provider pki.Provider = pki.NewNative()

var rootCmd = &cobra.Command{
	Use:   "camint",
	Short: "minimal certificate authority and issuance tool",
	Long: `camint bootstraps a root CA on disk and issues server certificates
signed by it. All state lives in the CA directory, nothing is kept between
invocations.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Initialize()
	},
}

// Execute runs the dispatcher. A bare invocation prints usage and exits 0,
// an unknown command or a failed one exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var createCa = &cobra.Command{
	Use:   "create-ca <output-dir> [org-name]",
	Short: "create a new root CA in <output-dir>",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		org := ""
		if len(args) > 1 {
			org = args[1]
		}
		store := castore.New(args[0], provider)
		return store.Create(org, cmd.OutOrStdout())
	},
}

var createCert = &cobra.Command{
	Use:   "create-cert <ca-dir> <server-name> [days]",
	Short: "issue a server certificate signed by the CA in <ca-dir>",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := castore.DefaultLeafDays
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil || parsed <= 0 {
				return fmt.Errorf("%w: days must be a positive number, got %q", pki.ErrInvalidInput, args[2])
			}
			days = parsed
		}
		store := castore.New(args[0], provider)
		return issuer.New(store, provider).Issue(args[1], days, cmd.OutOrStdout())
	},
}

var listCerts = &cobra.Command{
	Use:   "list <ca-dir>",
	Short: "list the CA and its issued certificates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect.New(provider).List(args[0], cmd.OutOrStdout())
	},
}

var checkCert = &cobra.Command{
	Use:   "check <cert-file>",
	Short: "print a certificate and verify its chain if the CA is nearby",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect.New(provider).Check(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(createCa)
	rootCmd.AddCommand(createCert)
	rootCmd.AddCommand(listCerts)
	rootCmd.AddCommand(checkCert)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"proposal-generator/internal/client"
)

var (
	rootCmd = &cobra.Command{
		Use:           "proposalctl",
		Short:         "Build and download project proposals from a proposal generator server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serverURL string
	timeout   time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("PROPOSAL_SERVER", "http://localhost:3000"), "Proposal generator base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall request timeout")

	rootCmd.AddCommand(biosCmd)
	rootCmd.AddCommand(placesCmd)
	rootCmd.AddCommand(newGenerateCmd())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() *client.Client {
	return client.New(serverURL, nil)
}

var biosCmd = &cobra.Command{
	Use:   "bios",
	Short: "List the staff bios available for selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		list, err := newClient().ListBios(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tACCREDITATIONS")
		for _, b := range list {
			accr := ""
			if b.Accreditations != nil {
				accr = *b.Accreditations
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, accr)
		}
		return w.Flush()
	},
}

var placesCmd = &cobra.Command{
	Use:   "places <partial address>",
	Short: "Suggest full addresses for manual address entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return printSuggestions(ctx, newClient(), strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func printSuggestions(ctx context.Context, c *client.Client, input string, out io.Writer) error {
	suggestions, err := c.Suggestions(ctx, input)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "no suggestions")
		return nil
	}
	for i, s := range suggestions {
		fmt.Fprintf(out, "%d. %s\n", i+1, s)
	}
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pythonstrup/openclaw-docker/internal/pairing"
	"github.com/pythonstrup/openclaw-docker/internal/store"
)

func pairingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairing",
		Short: "Manage device pairing (approve, pending, list)",
	}

	cmd.AddCommand(pairingApproveCmd())
	cmd.AddCommand(pairingPendingCmd())
	cmd.AddCommand(pairingListCmd())

	return cmd
}

// pairingApproveCmd is the out-of-band recovery path: it operates on
// the store files directly so it works even when the gateway's
// control channel is unreachable.
func pairingApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [requestId]",
		Short: "Approve a pending pairing request (most recent if no id given)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			paths := pairing.Paths{Pending: cfg.PendingPath, Paired: cfg.PairedPath}
			pending := paths.LoadPending()

			var requestID string
			if len(args) == 1 {
				requestID = args[0]
			} else {
				requestID = pairing.MostRecentRequestID(pending)
				if requestID == "" {
					fmt.Fprintln(os.Stderr, "No pending pairing requests.")
					os.Exit(1)
				}
			}

			deviceID, newPending, newPaired, err := pairing.Approve(pending, paths.LoadPaired(), requestID, time.Now())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
				os.Exit(1)
			}

			for _, p := range []string{cfg.PendingPath, cfg.PairedPath} {
				if err := store.EnsureDir(p); err != nil {
					fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
					os.Exit(1)
				}
			}
			if err := paths.SaveBoth(newPending, newPaired); err != nil {
				fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Approved %s (device %s)\n", requestID, deviceID)
		},
	}
}

func pairingPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending pairing requests",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			paths := pairing.Paths{Pending: cfg.PendingPath, Paired: cfg.PairedPath}
			printJSON(paths.LoadPending())
		},
	}
}

func pairingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List paired devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			paths := pairing.Paths{Pending: cfg.PendingPath, Paired: cfg.PairedPath}
			printJSON(paths.LoadPaired())
		},
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pythonstrup/openclaw-docker/internal/authsync"
	"github.com/pythonstrup/openclaw-docker/internal/identity"
	"github.com/pythonstrup/openclaw-docker/internal/pairing"
	"github.com/pythonstrup/openclaw-docker/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check bootstrap paths and state health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	cfg := loadConfig()

	fmt.Println("openclaw-docker doctor")
	fmt.Printf("  OS:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:   %s\n", runtime.Version())
	fmt.Println()

	fmt.Println("  Paths:")
	checkPath("Credentials", cfg.CredentialsPath)
	checkPath("Identity", cfg.IdentityPath)
	checkPath("Pending", cfg.PendingPath)
	checkPath("Paired", cfg.PairedPath)
	checkPath("Auth store", cfg.AuthStorePath)

	fmt.Println()
	if id := identity.DeviceID(cfg.IdentityPath); id != "" {
		fmt.Printf("  Device ID:        %s\n", id)
	} else {
		fmt.Println("  Device ID:        (none)")
	}

	paths := pairing.Paths{Pending: cfg.PendingPath, Paired: cfg.PairedPath}
	fmt.Printf("  Pending requests: %d\n", len(paths.LoadPending()))
	fmt.Printf("  Paired devices:   %d\n", len(paths.LoadPaired()))

	st := store.Load(cfg.AuthStorePath, authsync.AuthStore{})
	if _, ok := st.Profiles[authsync.DefaultProfileID]; ok {
		fmt.Printf("  Auth profile:     %s (synced)\n", authsync.DefaultProfileID)
	} else {
		fmt.Printf("  Auth profile:     %s (not synced yet)\n", authsync.DefaultProfileID)
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkPath(name, path string) {
	status := "OK"
	if _, err := os.Stat(path); err != nil {
		status = "NOT FOUND"
	}
	fmt.Printf("    %-12s %s (%s)\n", name+":", path, status)
}

// Command zincadm is the administrative CLI for a running ZINC
// scheduler instance, talking to the admin HTTP surface (pkg/admin).
// It follows the teacher's cmd/cockroach pattern: a root cobra.Command
// with subcommands registered via init(), each a thin HTTP client call.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string
var deviceID string

var rootCmd = &cobra.Command{
	Use:   "zincadm",
	Short: "Inspect and configure a running ZINC scheduler instance",
	Long:  `zincadm talks to a ZINC scheduler's admin HTTP surface to read or write configuration knobs and dump observability state.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://127.0.0.1:9115", "admin HTTP surface address")
	rootCmd.PersistentFlags().StringVar(&deviceID, "device", "", "attached device id (UUID) to administer, as reported by its /devices/{id} route")

	rootCmd.AddCommand(
		configListCmd,
		configGetCmd,
		configSetCmd,
		statsBucketsCmd,
		statsGateCmd,
		statsDispatchCmd,
	)
}

// devicePath prefixes path with the target device's /devices/{id}
// segment (pkg/admin.NewRouter), requiring --device since there is no
// discovery mechanism for which device a bare admin address serves.
func devicePath(path string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("zincadm: --device is required")
	}
	return "/devices/" + deviceID + path, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parking-iot-backend/cmd/parkingd/backfill"
	"parking-iot-backend/cmd/parkingd/options"
	"parking-iot-backend/cmd/parkingd/serve"
)

// These variables are populated via the Go linker.
var (
	version string
	commit  string
)

func init() {
	if version == "" {
		version = "unknown"
	}
	if commit == "" {
		commit = "unknown"
	}
}

var parkingdExamples = `  parkingd serve --config ./config/config.yaml
  parkingd backfill --start-date 2025-01-01 --end-date 2025-01-31
  parkingd backfill --start-date 2025-01-01 --dry-run`

func main() {
	mainCmd := GetCommand()
	mainCmd.AddCommand(serve.GetCommand())
	mainCmd.AddCommand(backfill.GetCommand())
	mainCmd.AddCommand(printBuildInfo())

	if err := mainCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error : %+v\n", err)
		os.Exit(1)
	}
}

func GetCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "parkingd [command]",
		Short:   "synthetic parking event generator",
		Long:    "parkingd generates CAR_IN/CAR_OUT events and parking sessions for a fleet of NYC facilities, live or for a historical date range.",
		Example: parkingdExamples,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return options.Env.Load()
		},
	}
	c.PersistentFlags().StringVarP(&options.Env.ConfigFile, "config", "c", "", `Set the path to the configuration file.
This defaults to the environment variable CONFIG_PATH, or
./config/config.yaml if a file is present there.`)
	return c
}

func printBuildInfo() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "displays the parkingd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("parkingd %s (git: %s)\n", version, commit)
		},
	}
}

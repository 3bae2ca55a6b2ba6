// Command notifyctl inspects delivery manifests and runs queue workers for
// deferred deliveries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "notifyctl",
	Short:         "Inspect and operate notifykit delivery trees",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		files, _ := cmd.Flags().GetStringSlice("env-file")
		return loadEnvFiles(files)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notifyctl version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Extra .env files to load, later files win")

	inspectCmd.Flags().StringP("file", "f", "deliveries.yaml", "Path to the delivery manifest")
	inspectCmd.Flags().Bool("json", false, "Print the resolution table as JSON")

	notifyCmd.Flags().StringP("file", "f", "deliveries.yaml", "Path to the delivery manifest")
	notifyCmd.Flags().StringToStringP("param", "p", nil, "Delivery params (key=value)")
	notifyCmd.Flags().StringToString("kwarg", nil, "Keyword arguments (key=value)")
	notifyCmd.Flags().Bool("now", false, "Deliver synchronously instead of enqueueing")
	notifyCmd.Flags().String("queue", "", "Queue name for deferred deliveries")
	notifyCmd.Flags().Duration("delay", 0, "Delay deferred deliveries")

	workerCmd.Flags().StringP("file", "f", "deliveries.yaml", "Path to the delivery manifest")
	workerCmd.Flags().String("listen", "", "Serve metrics, inbox and notify endpoints on this address")

	rootCmd.AddCommand(versionCmd, inspectCmd, migrateCmd, notifyCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

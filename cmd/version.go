package cmd

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/conneroisu/nucleator/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for nucleator.

Examples:
  nucleator version                # Short version
  nucleator version --detailed     # Detailed version info
  nucleator version --format json  # Output as JSON`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	versionCmd.Flags().Bool("detailed", false, "show detailed version information")
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	detailed, _ := cmd.Flags().GetBool("detailed")

	switch format {
	case "json":
		payload, err := json.MarshalIndent(map[string]string{
			"version": version.GetVersion(),
			"commit":  version.GetGitCommit(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	case "text":
		if detailed {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

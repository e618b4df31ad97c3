package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-letters/app/policy"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Client access policy commands",
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the access policy as firestore.rules",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rendered := policy.RenderFirestoreRules()
		if rulesOutput == "" || rulesOutput == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		}
		return os.WriteFile(rulesOutput, []byte(rendered), 0o644)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesExportCmd.Flags().StringVarP(&rulesOutput, "out", "o", "", "Write to a file instead of stdout")
}

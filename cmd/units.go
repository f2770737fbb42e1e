package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wavepeak-cli/internal/dataset"
)

var (
	unitsKind string
	unitsURL  string
	unitsFile string
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the countries or provinces available in a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		kind, err := dataset.ParseKind(unitsKind)
		if err != nil {
			return err
		}
		location, err := resolveLocation(c, unitsURL, unitsFile)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(c)
		if err != nil {
			return err
		}
		defer closeFn()

		units, err := svc.Units(cmd.Context(), location, kind)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(units) == 0 {
			fmt.Fprintln(out, "(no units)")
			return nil
		}
		for _, u := range units {
			fmt.Fprintf(out, "- %s\n", u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.Flags().StringVarP(&unitsKind, "kind", "k", "country", "unit kind: country|province")
	unitsCmd.Flags().StringVarP(&unitsURL, "url", "u", "", "dataset URL (default: config dataset_url)")
	unitsCmd.Flags().StringVarP(&unitsFile, "file", "f", "", "local dataset CSV")
}

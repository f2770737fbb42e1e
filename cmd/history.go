package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wavepeak-cli/internal/history"
	"github.com/KaramelBytes/wavepeak-cli/internal/render"
)

var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or show saved results",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		recs, err := history.NewStore(c.ResultsDir).List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "(no results)")
			return nil
		}
		for _, r := range recs {
			w := r.Result.Extremum
			fmt.Fprintf(out, "- %s  %s  %s (%s) %s %d on %s\n",
				r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Result.Unit, r.Result.Kind,
				r.Result.Mode, w.Primary.Value, w.Primary.Date.Format(c.DateFormat))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render a saved result (id prefixes are accepted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		r, err := history.NewStore(c.ResultsDir).Load(args[0])
		if err != nil {
			return err
		}
		b, err := render.Render(historyFormat, r.Result, renderOptions(c))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyShowCmd.Flags().StringVar(&historyFormat, "format", render.FormatText, "output format: text|markdown|json")
}

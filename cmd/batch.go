package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wavepeak-cli/internal/dataset"
	"github.com/KaramelBytes/wavepeak-cli/internal/history"
	"github.com/KaramelBytes/wavepeak-cli/internal/render"
	"github.com/KaramelBytes/wavepeak-cli/internal/service"
	"github.com/KaramelBytes/wavepeak-cli/internal/utils"
	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

var (
	bProvince        bool
	bURL             string
	bFile            string
	bType            string
	bFormat          string
	bQuiet           bool
	bContinueOnError bool
	bSave            bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <units...>",
	Short: "Locate extrema for several units from one dataset download",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		mode, err := wave.ParseMode(bType)
		if err != nil {
			return err
		}
		kind := dataset.Country
		if bProvince {
			kind = dataset.Province
		}
		var units []string
		seen := map[string]struct{}{}
		for _, a := range args {
			u := strings.TrimSpace(a)
			key := strings.ToLower(u)
			if _, ok := seen[key]; ok || u == "" {
				continue
			}
			seen[key] = struct{}{}
			units = append(units, u)
		}
		location, err := resolveLocation(c, bURL, bFile)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(c)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		table, err := svc.Load(ctx, location)
		if err != nil {
			return err
		}
		store := history.NewStore(c.ResultsDir)
		opt := renderOptions(c)
		out := cmd.OutOrStdout()

		// JSON results are emitted as one array.
		asJSON := strings.EqualFold(strings.TrimSpace(bFormat), render.FormatJSON)
		docs := make([]json.RawMessage, 0, len(units))
		flush := func() error {
			if !asJSON {
				return nil
			}
			b, err := utils.PrettyJSON(docs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		}

		total := len(units)
		failed, printed := 0, 0
		for i, unit := range units {
			if !bQuiet {
				fmt.Fprintf(os.Stderr, "[%d/%d] Processing %s...\n", i+1, total, unit)
			}
			res, err := service.LocateIn(ctx, table, service.Request{Location: location, Kind: kind, Unit: unit, Mode: mode})
			if err == nil {
				var b []byte
				b, err = render.Render(bFormat, res, opt)
				if err == nil {
					switch {
					case asJSON:
						docs = append(docs, json.RawMessage(b))
					default:
						if printed > 0 {
							fmt.Fprintln(out)
						}
						fmt.Fprint(out, string(b))
					}
					printed++
				}
			}
			if err == nil && bSave {
				rec := &history.Record{Source: location, Result: res}
				if err = store.Save(rec); err == nil && !bQuiet {
					fmt.Fprintf(os.Stderr, "✓ Saved result %s\n", rec.ID)
				}
			}
			if err != nil {
				failed++
				if !bContinueOnError {
					_ = flush()
					return fmt.Errorf("%s: %w", unit, err)
				}
				fmt.Fprintf(os.Stderr, "⚠ Skipping %s: %v\n", unit, err)
			}
		}
		if err := flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d units failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVar(&bProvince, "province", false, "treat arguments as provinces/states instead of countries")
	batchCmd.Flags().StringVarP(&bURL, "url", "u", "", "dataset URL (default: config dataset_url)")
	batchCmd.Flags().StringVarP(&bFile, "file", "f", "", "local dataset CSV")
	batchCmd.Flags().StringVarP(&bType, "type", "t", "highest", "extremum to locate: highest|lowest")
	batchCmd.Flags().StringVar(&bFormat, "format", render.FormatText, "output format: text|markdown|json")
	batchCmd.Flags().BoolVar(&bQuiet, "quiet", false, "suppress progress output")
	batchCmd.Flags().BoolVar(&bContinueOnError, "continue-on-error", false, "keep going when a unit fails")
	batchCmd.Flags().BoolVar(&bSave, "save", false, "save each result to history")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
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
	locCountry  string
	locProvince string
	locURL      string
	locFile     string
	locType     string
	locFormat   string
	locOutput   string
	locSave     bool
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate the highest or lowest point of a unit's daily-case wave",
	Example: `  wavepeak locate -c Italy
  wavepeak locate -p Ontario -t lowest --format markdown
  wavepeak locate -c Germany -f ./time_series_covid19_confirmed_global.csv --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		kind, unit, err := unitFlags(locCountry, locProvince)
		if err != nil {
			return err
		}
		mode, err := wave.ParseMode(locType)
		if err != nil {
			return err
		}
		location, err := resolveLocation(c, locURL, locFile)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(c)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := svc.Locate(cmd.Context(), service.Request{Location: location, Kind: kind, Unit: unit, Mode: mode})
		if err != nil {
			return err
		}
		out, err := render.Render(locFormat, res, renderOptions(c))
		if err != nil {
			return err
		}
		if locOutput != "" {
			if err := utils.EnsureDir(filepath.Dir(locOutput)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(locOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", locOutput)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		}
		if locSave {
			rec := &history.Record{Source: location, Result: res}
			if err := history.NewStore(c.ResultsDir).Save(rec); err != nil {
				return fmt.Errorf("save result: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Saved result %s\n", rec.ID)
		}
		return nil
	},
}

// unitFlags enforces exactly one of country/province.
func unitFlags(country, province string) (dataset.Kind, string, error) {
	country, province = strings.TrimSpace(country), strings.TrimSpace(province)
	switch {
	case country != "" && province != "":
		return "", "", fmt.Errorf("specify only one of --country or --province")
	case country != "":
		return dataset.Country, country, nil
	case province != "":
		return dataset.Province, province, nil
	default:
		return "", "", fmt.Errorf("one of --country or --province is required")
	}
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().StringVarP(&locCountry, "country", "c", "", "country/region to analyze (provinces are summed)")
	locateCmd.Flags().StringVarP(&locProvince, "province", "p", "", "province/state to analyze")
	locateCmd.Flags().StringVarP(&locURL, "url", "u", "", "dataset URL (default: config dataset_url)")
	locateCmd.Flags().StringVarP(&locFile, "file", "f", "", "local dataset CSV")
	locateCmd.Flags().StringVarP(&locType, "type", "t", "highest", "extremum to locate: highest|lowest")
	locateCmd.Flags().StringVar(&locFormat, "format", render.FormatText, "output format: text|markdown|json")
	locateCmd.Flags().StringVarP(&locOutput, "output", "o", "", "write output to file instead of stdout")
	locateCmd.Flags().BoolVar(&locSave, "save", false, "save the result to history")
}

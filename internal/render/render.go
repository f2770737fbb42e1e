// Package render formats located extrema for terminals, Markdown documents
// and machine consumers.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/service"
	"github.com/KaramelBytes/wavepeak-cli/internal/utils"
	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

// Formats accepted by Render.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Options controls date layouts and chart width.
type Options struct {
	DateLayout  string // x-axis and table dates
	LabelLayout string // dates inside labels
	BarWidth    int
}

func (o Options) withDefaults() Options {
	if o.DateLayout == "" {
		o.DateLayout = time.DateOnly
	}
	if o.LabelLayout == "" {
		o.LabelLayout = wave.LabelLayout
	}
	if o.BarWidth <= 0 {
		o.BarWidth = 40
	}
	return o
}

// Render dispatches on format.
func Render(format string, r *service.Result, opt Options) ([]byte, error) {
	if r == nil || r.Extremum == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText, "":
		return []byte(Text(r, opt)), nil
	case FormatMarkdown, "md":
		return []byte(Markdown(r, opt)), nil
	case FormatJSON:
		return JSON(r, opt)
	default:
		return nil, fmt.Errorf("invalid format: %q (use text|markdown|json)", format)
	}
}

// Title is the chart heading for unit.
func Title(unit string) string {
	return "COVID-19 Epidemic in " + unit
}

func labels(w *wave.WaveExtremum, opt Options) (primary, alternate string) {
	return w.PrimaryLabelText(opt.LabelLayout), wave.JoinAnnotations(w.Annotations, opt.LabelLayout, "; ")
}

// Text renders a title, the labels and a horizontal bar chart of the daily
// window. Negative days draw no bar.
func Text(r *service.Result, opt Options) string {
	opt = opt.withDefaults()
	w := r.Extremum
	primary, alternate := labels(w, opt)

	var b strings.Builder
	title := Title(r.Unit)
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))) + "\n")
	b.WriteString(primary + "\n")
	if alternate != "" {
		b.WriteString(alternate + "\n")
	}
	b.WriteString("\n")

	var peak int64
	for _, v := range w.DailyCases {
		if v > peak {
			peak = v
		}
	}
	valWidth := 1
	for _, v := range w.DailyCases {
		if n := len(fmt.Sprint(v)); n > valWidth {
			valWidth = n
		}
	}
	for i, v := range w.DailyCases {
		n := 0
		if peak > 0 && v > 0 {
			n = int(float64(v) / float64(peak) * float64(opt.BarWidth))
			if n == 0 {
				n = 1
			}
		}
		marker := "  "
		if w.Dates[i].Equal(w.Primary.Date) {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s | %-*s %*d\n", marker, w.Dates[i].Format(opt.DateLayout), opt.BarWidth, strings.Repeat("#", n), valWidth, v)
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// Markdown renders the result as a Markdown section with a daily table.
func Markdown(r *service.Result, opt Options) string {
	opt = opt.withDefaults()
	w := r.Extremum
	primary, _ := labels(w, opt)

	var b strings.Builder
	b.WriteString("## " + Title(safeVal(r.Unit)) + "\n\n")
	fmt.Fprintf(&b, "- Unit: %s (%s)\n", safeVal(r.Unit), r.Kind)
	if !r.From.IsZero() {
		fmt.Fprintf(&b, "- Data: %s to %s\n", r.From.Format(opt.DateLayout), r.To.Format(opt.DateLayout))
	}
	fmt.Fprintf(&b, "- %s\n", primary)
	for _, a := range w.Annotations {
		fmt.Fprintf(&b, "- %s\n", a.Text(opt.LabelLayout))
	}
	b.WriteString("\n| Date | Daily cases |\n|---|---:|\n")
	for i, v := range w.DailyCases {
		d := w.Dates[i].Format(opt.DateLayout)
		if w.Dates[i].Equal(w.Primary.Date) {
			fmt.Fprintf(&b, "| **%s** | **%d** |\n", d, v)
			continue
		}
		fmt.Fprintf(&b, "| %s | %d |\n", d, v)
	}
	return b.String()
}

type jsonDay struct {
	Date  string `json:"date"`
	Cases int64  `json:"cases"`
}

type jsonNote struct {
	wave.Annotation
	Label string `json:"text"`
}

type jsonResult struct {
	Unit           string     `json:"unit"`
	Kind           string     `json:"kind"`
	Mode           wave.Mode  `json:"mode"`
	From           string     `json:"from,omitempty"`
	To             string     `json:"to,omitempty"`
	Date           string     `json:"date"`
	Value          int64      `json:"value"`
	PrimaryLabel   string     `json:"primary_label"`
	AlternateLabel string     `json:"alternate_label"`
	Annotations    []jsonNote `json:"annotations"`
	Daily          []jsonDay  `json:"daily"`
}

// JSON renders a flat document with dates in the display layout.
func JSON(r *service.Result, opt Options) ([]byte, error) {
	opt = opt.withDefaults()
	w := r.Extremum
	primary, alternate := labels(w, opt)
	out := jsonResult{
		Unit:           r.Unit,
		Kind:           string(r.Kind),
		Mode:           r.Mode,
		Date:           w.Primary.Date.Format(opt.DateLayout),
		Value:          w.Primary.Value,
		PrimaryLabel:   primary,
		AlternateLabel: alternate,
		Annotations:    make([]jsonNote, 0, len(w.Annotations)),
		Daily:          make([]jsonDay, 0, len(w.DailyCases)),
	}
	if !r.From.IsZero() {
		out.From = r.From.Format(opt.DateLayout)
		out.To = r.To.Format(opt.DateLayout)
	}
	for _, a := range w.Annotations {
		out.Annotations = append(out.Annotations, jsonNote{Annotation: a, Label: a.Text(opt.LabelLayout)})
	}
	for i, v := range w.DailyCases {
		out.Daily = append(out.Daily, jsonDay{Date: w.Dates[i].Format(opt.DateLayout), Cases: v})
	}
	b, err := utils.PrettyJSON(out)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

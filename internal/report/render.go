package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// Formats lists every supported format.
var Formats = []string{FormatText, FormatMarkdown, FormatJSON, FormatHTML}

var columns = []string{"Scene", "Loads", "Untimed", "Mean", "StdDev", "Min", "P50", "P95", "Max"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = cellStyle.Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Render writes s to w in format. title heads the output.
func Render(w io.Writer, format, title string, s Summary) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, Text(title, s))
		return err
	case FormatMarkdown:
		out, err := RenderMarkdown(Markdown(title, s), "dark", 100)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatJSON:
		data, err := JSON(title, s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatHTML:
		return HTML(w, title, s)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func row(s SceneSummary) []string {
	if s.Count == 0 {
		return []string{s.Scene, "0", strconv.Itoa(s.Untimed), "-", "-", "-", "-", "-", "-"}
	}
	return []string{
		s.Scene,
		strconv.Itoa(s.Count),
		strconv.Itoa(s.Untimed),
		ms(s.Mean), ms(s.StdDev), ms(s.Min), ms(s.P50), ms(s.P95), ms(s.Max),
	}
}

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "ms"
}

// Text renders s as a terminal table.
func Text(title string, s Summary) string {
	rows := make([][]string, 0, len(s.Scenes)+1)
	for _, sc := range s.Scenes {
		rows = append(rows, row(sc))
	}
	rows = append(rows, row(s.Total))
	last := len(rows) - 1

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(r, _ int) lipgloss.Style {
			switch r {
			case table.HeaderRow:
				return headerStyle
			case last:
				return totalStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// Markdown renders s as a markdown document.
func Markdown(title string, s Summary) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, sc := range s.Scenes {
		b.WriteString("| " + strings.Join(row(sc), " | ") + " |\n")
	}
	total := row(s.Total)
	total[0] = "**" + total[0] + "**"
	b.WriteString("| " + strings.Join(total, " | ") + " |\n")
	return b.String()
}

// RenderMarkdown styles md for a terminal of the given width.
func RenderMarkdown(md, style string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// JSON renders s as indented JSON.
func JSON(title string, s Summary) ([]byte, error) {
	var err error
	out := []byte(`{}`)
	set := func(path string, v any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, v)
		}
	}

	set("title", title)
	set("scenes", []any{})
	for _, sc := range s.Scenes {
		set("scenes.-1", jsonScene(sc))
	}
	set("total", jsonScene(s.Total))
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return pretty.Pretty(out), nil
}

func jsonScene(s SceneSummary) map[string]any {
	return map[string]any{
		"scene":     s.Scene,
		"loads":     s.Count,
		"untimed":   s.Untimed,
		"mean_ms":   s.Mean,
		"stddev_ms": s.StdDev,
		"min_ms":    s.Min,
		"p50_ms":    s.P50,
		"p95_ms":    s.P95,
		"max_ms":    s.Max,
	}
}

// HTML writes an interactive chart page for s.
func HTML(w io.Writer, title string, s Summary) error {
	if title == "" {
		title = "Scene load times"
	}
	names := make([]string, len(s.Scenes))
	mean := make([]opts.BarData, len(s.Scenes))
	p95 := make([]opts.BarData, len(s.Scenes))
	maxv := make([]opts.BarData, len(s.Scenes))
	counts := make([]opts.BarData, len(s.Scenes))
	for i, sc := range s.Scenes {
		names[i] = sc.Scene
		mean[i] = opts.BarData{Value: round1(sc.Mean)}
		p95[i] = opts.BarData{Value: round1(sc.P95)}
		maxv[i] = opts.BarData{Value: round1(sc.Max)}
		counts[i] = opts.BarData{Value: sc.Count}
	}

	durations := charts.NewBar()
	durations.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("n=%d, mean=%.1fms, p95=%.1fms", s.Total.Count, s.Total.Mean, s.Total.P95),
		}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	durations.SetXAxis(names).
		AddSeries("mean", mean).
		AddSeries("p95", p95).
		AddSeries("max", maxv)

	loads := charts.NewBar()
	loads.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Timed loads per scene"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
	)
	loads.SetXAxis(names).
		AddSeries("loads", counts).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))

	page := components.NewPage()
	page.AddCharts(durations, loads)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}

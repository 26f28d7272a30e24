package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
)

// AllScenes labels the summary across every scene.
const AllScenes = "(all)"

// SceneSummary aggregates the timed loads of one scene. Durations are in
// milliseconds.
type SceneSummary struct {
	Scene   string
	Count   int
	Untimed int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	P50     float64
	P95     float64
	Samples []float64 // sorted ascending
}

// Summary holds per-scene summaries in first-seen order plus a total.
type Summary struct {
	Scenes []SceneSummary
	Total  SceneSummary
}

// Summarize aggregates records. Scenes that only ever loaded untimed still
// appear, with zero statistics.
func Summarize(records []Record) Summary {
	var order []string
	samples := make(map[string][]float64)
	untimed := make(map[string]int)
	var all []float64
	var allUntimed int

	for _, r := range records {
		timed := r.Timed()
		if !timed && r.Kind != event.KindLoadUntimed.String() {
			continue
		}
		if _, seen := samples[r.Scene]; !seen {
			order = append(order, r.Scene)
			samples[r.Scene] = nil
		}
		if !timed {
			untimed[r.Scene]++
			allUntimed++
			continue
		}
		ms := float64(r.Duration) / float64(time.Millisecond)
		samples[r.Scene] = append(samples[r.Scene], ms)
		all = append(all, ms)
	}

	s := Summary{Scenes: make([]SceneSummary, 0, len(order))}
	for _, name := range order {
		s.Scenes = append(s.Scenes, summarize(name, samples[name], untimed[name]))
	}
	s.Total = summarize(AllScenes, all, allUntimed)
	return s
}

func summarize(name string, xs []float64, untimed int) SceneSummary {
	out := SceneSummary{Scene: name, Count: len(xs), Untimed: untimed}
	if len(xs) == 0 {
		return out
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	out.Samples = sorted
	out.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		out.StdDev = stat.StdDev(sorted, nil)
	}
	out.Min = floats.Min(sorted)
	out.Max = floats.Max(sorted)
	out.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	out.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return out
}

package engine

import (
	"time"

	"sift/internal/analysis"
)

// TechniqueMetric is one technique's aggregate over a run.
type TechniqueMetric struct {
	Name        string  `json:"name"`
	DurationMs  float64 `json:"durationMs"`
	Occurrences int     `json:"occurrences"`
	Global      bool    `json:"global"`
}

// Metrics is the per-run execution aggregate.
type Metrics struct {
	TotalFiles     int               `json:"totalFiles"`
	ParseTimeMs    float64           `json:"parseTimeMs"`
	AnalysisTimeMs float64           `json:"analysisTimeMs"`
	CacheHits      int               `json:"cacheHits"`
	CacheMisses    int               `json:"cacheMisses"`
	PerTechnique   []TechniqueMetric `json:"perTechnique"`
}

// aggregator accumulates per-technique samples during a run. It is only
// touched by the coordinating goroutine: workers hand their samples back
// as plain data and the merge step feeds them in.
type aggregator struct {
	order   []string
	byName  map[string]*TechniqueMetric
	metrics Metrics
}

func newAggregator(registry *analysis.Registry) *aggregator {
	agg := &aggregator{
		byName: make(map[string]*TechniqueMetric),
	}
	for _, t := range registry.List() {
		agg.order = append(agg.order, t.Name)
		agg.byName[t.Name] = &TechniqueMetric{Name: t.Name, Global: t.Global}
	}
	return agg
}

func (a *aggregator) add(name string, duration time.Duration, occurrences int) {
	m, ok := a.byName[name]
	if !ok {
		return
	}
	m.DurationMs += float64(duration) / float64(time.Millisecond)
	m.Occurrences += occurrences
}

func (a *aggregator) addMs(name string, durationMs float64, occurrences int) {
	m, ok := a.byName[name]
	if !ok {
		return
	}
	m.DurationMs += durationMs
	m.Occurrences += occurrences
}

// finish produces the final metrics value, techniques in registration
// order.
func (a *aggregator) finish() *Metrics {
	out := a.metrics
	out.PerTechnique = make([]TechniqueMetric, 0, len(a.order))
	for _, name := range a.order {
		out.PerTechnique = append(out.PerTechnique, *a.byName[name])
	}
	return &out
}

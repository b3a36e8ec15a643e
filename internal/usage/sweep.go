package usage

import (
	"context"
	"fmt"

	"closedcat/internal/logging"
	"closedcat/internal/stats"
)

// Options configures Sweep.
type Options struct {
	Thresholds        []float64
	OutlierSD         float64
	Categories        []string
	Alternative       stats.Alternative
	LowSampleSize     int
	ExcludeDigitWords bool
}

// DefaultOptions returns the sweep used for the published analysis.
func DefaultOptions() Options {
	return Options{
		Thresholds:    []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		OutlierSD:     3,
		Categories:    []string{"preposition", "determiner", "conjunction", "digit"},
		Alternative:   stats.Greater,
		LowSampleSize: 20,
	}
}

// Comparison is one domain-versus-general Mann-Whitney comparison.
// Category is empty for the comparison over all words.
type Comparison struct {
	Threshold     float64
	Category      string
	DomainCount   int
	GeneralCount  int
	DomainMean    float64
	GeneralMean   float64
	DomainMedian  float64
	GeneralMedian float64
	Statistic     float64
	PValue        float64
	Method        string

	// Per-category only
	CliffsDelta float64
	Magnitude   string
	LowSample   bool

	// Filled in after the sweep
	FDR       float64
	NegLog10P float64
}

// Result collects the comparisons of a sweep.
type Result struct {
	Global      []Comparison
	PerCategory []Comparison
	Skipped     []float64 // thresholds with an empty side after filtering
}

// Sweep compares log-scaled usage of the domain rows against the general rows
// at every coverage threshold. Outliers are removed first, then words below
// the coverage threshold. A threshold that empties either side is skipped.
// FDR correction runs across all global and, separately, all per-category
// comparisons.
func Sweep(ctx context.Context, domain, general []Row, opts Options) (*Result, error) {
	if opts.Alternative == "" {
		opts.Alternative = stats.Greater
	}
	if opts.ExcludeDigitWords {
		domain = ExcludeDigitWords(domain)
		general = ExcludeDigitWords(general)
	}
	domain = RemoveOutliers(domain, opts.OutlierSD)
	general = RemoveOutliers(general, opts.OutlierSD)

	timer := logging.StartTimer(logging.CategorySweep, "usage sweep")
	defer timer.Stop()

	res := &Result{}
	for _, threshold := range opts.Thresholds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := FilterByCoverage(domain, threshold)
		g := FilterByCoverage(general, threshold)
		if len(d) == 0 || len(g) == 0 {
			logging.SweepWarn("threshold %.2f skipped: empty dataset after filtering (domain=%d general=%d)", threshold, len(d), len(g))
			res.Skipped = append(res.Skipped, threshold)
			continue
		}

		global, err := compare(threshold, "", LogScale(d), LogScale(g), opts.Alternative)
		if err != nil {
			return nil, fmt.Errorf("threshold %.2f: %w", threshold, err)
		}
		res.Global = append(res.Global, *global)
		logging.Sweep("threshold %.2f: domain=%d general=%d U=%.1f p=%.4g", threshold, global.DomainCount, global.GeneralCount, global.Statistic, global.PValue)

		for _, category := range opts.Categories {
			ds := withCategory(d, category)
			gs := withCategory(g, category)
			if len(ds) == 0 || len(gs) == 0 {
				continue
			}
			dl, gl := LogScale(ds), LogScale(gs)
			c, err := compare(threshold, category, dl, gl, opts.Alternative)
			if err != nil {
				return nil, fmt.Errorf("threshold %.2f %s: %w", threshold, category, err)
			}
			if c.CliffsDelta, err = stats.CliffsDelta(dl, gl); err != nil {
				return nil, err
			}
			c.Magnitude = stats.CliffsMagnitude(c.CliffsDelta)
			c.LowSample = len(ds) < opts.LowSampleSize || len(gs) < opts.LowSampleSize
			res.PerCategory = append(res.PerCategory, *c)
		}
	}

	correct(res.Global)
	correct(res.PerCategory)
	return res, nil
}

func compare(threshold float64, category string, d, g []float64, alt stats.Alternative) (*Comparison, error) {
	mw, err := stats.MannWhitneyU(d, g, alt)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Threshold:     threshold,
		Category:      category,
		DomainCount:   len(d),
		GeneralCount:  len(g),
		DomainMean:    stats.Mean(d),
		GeneralMean:   stats.Mean(g),
		DomainMedian:  stats.Median(d),
		GeneralMedian: stats.Median(g),
		Statistic:     mw.U,
		PValue:        mw.PValue,
		Method:        mw.Method,
	}, nil
}

func withCategory(rows []Row, name string) []Row {
	var out []Row
	for _, r := range rows {
		if r.HasCategory(name) {
			out = append(out, r)
		}
	}
	return out
}

func correct(cs []Comparison) {
	p := make([]float64, len(cs))
	for i, c := range cs {
		p[i] = c.PValue
	}
	for i, adj := range stats.BenjaminiHochberg(p) {
		cs[i].FDR = adj
		cs[i].NegLog10P = stats.NegLog10(cs[i].PValue)
	}
}

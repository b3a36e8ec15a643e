package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all closedcat configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Input files
	Data DataConfig `yaml:"data"`

	// Output directory and formats
	Output OutputConfig `yaml:"output"`

	// Per-analysis settings
	ChiSquare ChiSquareConfig `yaml:"chisquare"`
	Kappa     KappaConfig     `yaml:"kappa"`
	Sweep     SweepConfig     `yaml:"sweep"`
	TopTerms  TopTermsConfig  `yaml:"topterms"`
	Patch     PatchConfig     `yaml:"patch"`
	Scan      ScanConfig      `yaml:"scan"`

	// Run ledger
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the annotation files. Relative paths resolve against Dir.
type DataConfig struct {
	Dir string `yaml:"dir"`

	// Full open-coding dataset (all identifiers with grammar patterns)
	Full string `yaml:"full"`

	// Axial-code annotation files, one per closed category
	Digit       string `yaml:"digit"`
	Determiner  string `yaml:"determiner"`
	Preposition string `yaml:"preposition"`
	Conjunction string `yaml:"conjunction"`

	// Per-tag statistical-analysis files keyed by tag (DT, CJ, D, P)
	TagFiles map[string]string `yaml:"tag_files"`

	// Word/system usage statistics for the sweep
	UsageDomain  string `yaml:"usage_domain"`
	UsageGeneral string `yaml:"usage_general"`

	// Languages counted in summaries
	Languages []string `yaml:"languages"`

	// Pairing of split words with tags when their counts differ:
	// strict skips the row, truncate pairs up to the shorter sequence
	Alignment string `yaml:"alignment"`
}

// OutputConfig configures where and how reports are written.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Parquet bool   `yaml:"parquet"` // also write sweep results as Parquet
}

// ChiSquareConfig configures the contingency analyses.
type ChiSquareConfig struct {
	Alpha float64 `yaml:"alpha"`
	Yates bool    `yaml:"yates"` // continuity correction on 2x2 tables

	// Row order of both tables (tags)
	Tags []string `yaml:"tags"`

	// Column orders
	Languages []string `yaml:"languages"`
	Contexts  []string `yaml:"contexts"`

	// Optional precomputed tables; when set they replace the tallies
	LanguageTable string `yaml:"language_table"`
	ContextTable  string `yaml:"context_table"`

	// Stacked file holding both tables as separate blocks
	Table         string `yaml:"table"`
	LanguageBlock int    `yaml:"language_block"`
	ContextBlock  int    `yaml:"context_block"`
}

// KappaConfig configures the agreement analysis.
type KappaConfig struct {
	// Column marker for single-axis annotator columns
	AnnotatorMarker string `yaml:"annotator_marker"`

	// Annotators of the dual-axis file; columns are "<name> Axial Code Role/Meaning"
	DualAxisAnnotators []string `yaml:"dual_axis_annotators"`

	// Drop items labelled by fewer annotators than the maximum
	DropIncomplete bool `yaml:"drop_incomplete"`
}

// SweepConfig configures the usage threshold sweep.
type SweepConfig struct {
	Start            float64  `yaml:"start"`
	Stop             float64  `yaml:"stop"`
	Step             float64  `yaml:"step"`
	OutlierSD        float64  `yaml:"outlier_sd"`
	Categories       []string `yaml:"categories"`
	Alternative      string   `yaml:"alternative"` // greater, less, two-sided
	LowSampleSize    int      `yaml:"low_sample_size"`
	ExcludeDigitWord bool     `yaml:"exclude_digit_words"`
}

// TopTermsConfig configures the top closed-category terms table.
type TopTermsConfig struct {
	Limit int      `yaml:"limit"`
	Tags  []string `yaml:"tags"` // column order
}

// PatchConfig lists Markdown summaries to refresh with current counts.
type PatchConfig struct {
	Targets []PatchTarget `yaml:"targets"`
}

// PatchTarget binds an annotation file to the Markdown it summarises.
type PatchTarget struct {
	Name     string   `yaml:"name"`
	Data     string   `yaml:"data"`     // annotation file (relative to data dir)
	Markdown string   `yaml:"markdown"` // existing summary (relative to data dir)
	KeyCols  []string `yaml:"key_cols"` // joined with " x " to form the code key
}

// ScanConfig configures the raw identifier scan.
type ScanConfig struct {
	ResultsDir string `yaml:"results_dir"`
}

// StoreConfig configures the run ledger.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "closedcat",
		Version: "1.0.0",

		Data: DataConfig{
			Dir:         "data",
			Full:        "Tagger Open Coding - Name and Grammar Pattern.tsv",
			Digit:       "Digit Axial Code Annotations - digit_axial_code_dual_axis.tsv",
			Determiner:  "Determiner Axial Code Anntoations - determiner_axial_code_validation.tsv",
			Preposition: "Preposition Axial Code Annotations - refined_axial_code_labels_updated.tsv",
			Conjunction: "Conjunction Axial Code Annotations - conjunction_axial_codes_final.tsv",
			TagFiles: map[string]string{
				"DT": "Statistical Analysis - DT.tsv",
				"CJ": "Statistical Analysis - CJ.tsv",
				"D":  "Statistical Analysis - D.tsv",
				"P":  "Statistical Analysis - P.tsv",
			},
			UsageDomain:  "word_system_stats_with_sloc_domain.csv",
			UsageGeneral: "word_system_stats_with_sloc_general.csv",
			Languages:    []string{"C", "C++", "Java"},
			Alignment:    "strict",
		},

		Output: OutputConfig{
			Dir: "output",
		},

		ChiSquare: ChiSquareConfig{
			Alpha:     0.05,
			Tags:      []string{"CJ", "DT", "D", "P"},
			Languages: []string{"C++", "Java", "C"},
			Contexts:  []string{"ATTRIBUTE", "DECLARATION", "PARAMETER", "FUNCTION", "CLASS"},

			LanguageBlock: 0,
			ContextBlock:  1,
		},

		Kappa: KappaConfig{
			AnnotatorMarker:    "Axial Code",
			DualAxisAnnotators: []string{"Christian", "Syreen", "Anthony"},
			DropIncomplete:     true,
		},

		Sweep: SweepConfig{
			Start:         0.0,
			Stop:          1.0,
			Step:          0.1,
			OutlierSD:     3,
			Categories:    []string{"preposition", "determiner", "conjunction", "digit"},
			Alternative:   "greater",
			LowSampleSize: 20,
		},

		TopTerms: TopTermsConfig{
			Limit: 5,
			Tags:  []string{"DT", "CJ", "D", "P"},
		},

		Patch: PatchConfig{
			Targets: []PatchTarget{
				{
					Name:     "Digit_Selective_Codes_Dual_Axis",
					Data:     "Digit Axial Code Annotations - digit_axial_code_dual_axis.tsv",
					Markdown: "Digit_Selective_Codes_Dual_Axis.md",
					KeyCols:  []string{"final_axial_code_role", "final_axial_code_meaning"},
				},
				{
					Name:     "Conjunction_Selective_Code_Summary",
					Data:     "Conjunction Axial Code Annotations - conjunction_axial_codes_final.tsv",
					Markdown: "Conjunction_Selective_Code_Summary.md",
					KeyCols:  []string{"final_axial_code"},
				},
				{
					Name:     "Preposition_Selective_Code_Summary",
					Data:     "Preposition Axial Code Annotations - refined_axial_code_labels_updated.tsv",
					Markdown: "Preposition_Selective_Code_Summary.md",
					KeyCols:  []string{"final_axial_code"},
				},
				{
					Name:     "Determiner_Selective_Code_Summary",
					Data:     "Determiner Axial Code Anntoations - determiner_axial_code_validation.tsv",
					Markdown: "Determiner_Selective_Code_Summary.md",
					KeyCols:  []string{"final_axial_code"},
				},
			},
		},

		Scan: ScanConfig{
			ResultsDir: "results",
		},

		Store: StoreConfig{
			Enabled: true,
			Path:    ".closedcat/runs.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("CLOSEDCAT_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if dir := os.Getenv("CLOSEDCAT_OUTPUT_DIR"); dir != "" {
		c.Output.Dir = dir
	}
	if path := os.Getenv("CLOSEDCAT_DB"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("CLOSEDCAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// DataPath resolves a data file name against the data directory.
func (c *Config) DataPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

// OutputPath resolves an output file name against the output directory.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// CategoryFiles returns the axial-code annotation files keyed by category name.
func (c *Config) CategoryFiles() map[string]string {
	return map[string]string{
		"Determiner":  c.DataPath(c.Data.Determiner),
		"Digit":       c.DataPath(c.Data.Digit),
		"Preposition": c.DataPath(c.Data.Preposition),
		"Conjunction": c.DataPath(c.Data.Conjunction),
	}
}

// Thresholds expands the sweep range into rounded threshold values.
func (c *Config) Thresholds() []float64 {
	s := c.Sweep
	if s.Step <= 0 {
		return []float64{s.Start}
	}
	var out []float64
	for i := 0; ; i++ {
		t := s.Start + float64(i)*s.Step
		t = float64(int64(t*100+0.5)) / 100
		if t > s.Stop+1e-9 {
			break
		}
		out = append(out, t)
	}
	return out
}

// ValidAlignments lists the supported word/tag pairings.
var ValidAlignments = []string{"strict", "truncate"}

// ValidAlternatives lists the supported rank-sum alternatives.
var ValidAlternatives = []string{"greater", "less", "two-sided"}

// ValidSweepCategories lists the category names usable in the sweep.
var ValidSweepCategories = []string{"preposition", "determiner", "conjunction", "digit"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ChiSquare.Alpha <= 0 || c.ChiSquare.Alpha >= 1 {
		return fmt.Errorf("chisquare.alpha must be in (0, 1), got %v", c.ChiSquare.Alpha)
	}
	if c.ChiSquare.LanguageBlock < 0 || c.ChiSquare.ContextBlock < 0 {
		return fmt.Errorf("chisquare blocks must be >= 0, got language=%d context=%d", c.ChiSquare.LanguageBlock, c.ChiSquare.ContextBlock)
	}
	if c.Sweep.Start < 0 || c.Sweep.Stop > 1 || c.Sweep.Start > c.Sweep.Stop {
		return fmt.Errorf("sweep range must satisfy 0 <= start <= stop <= 1, got [%v, %v]", c.Sweep.Start, c.Sweep.Stop)
	}
	if c.Sweep.OutlierSD <= 0 {
		return fmt.Errorf("sweep.outlier_sd must be positive, got %v", c.Sweep.OutlierSD)
	}
	if !contains(ValidAlignments, c.Data.Alignment) {
		return fmt.Errorf("invalid data alignment: %s (valid: %v)", c.Data.Alignment, ValidAlignments)
	}
	if !contains(ValidAlternatives, c.Sweep.Alternative) {
		return fmt.Errorf("invalid sweep alternative: %s (valid: %v)", c.Sweep.Alternative, ValidAlternatives)
	}
	for _, cat := range c.Sweep.Categories {
		if !contains(ValidSweepCategories, strings.ToLower(cat)) {
			return fmt.Errorf("invalid sweep category: %s (valid: %v)", cat, ValidSweepCategories)
		}
	}
	if c.TopTerms.Limit <= 0 {
		return fmt.Errorf("topterms.limit must be positive, got %d", c.TopTerms.Limit)
	}
	for _, target := range c.Patch.Targets {
		if len(target.KeyCols) == 0 {
			return fmt.Errorf("patch target %q has no key_cols", target.Name)
		}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path required when the run ledger is enabled")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

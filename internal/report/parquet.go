package report

import (
	"bytes"
	"fmt"
	"os"

	"closedcat/internal/logging"
	"closedcat/internal/usage"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// comparisonRow is the Parquet schema of one sweep comparison. Global
// comparisons have an empty category.
type comparisonRow struct {
	Threshold     float64 `parquet:"name=threshold, type=DOUBLE"`
	Category      string  `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8"`
	DomainCount   int64   `parquet:"name=domain_count, type=INT64"`
	GeneralCount  int64   `parquet:"name=general_count, type=INT64"`
	DomainMean    float64 `parquet:"name=domain_mean, type=DOUBLE"`
	GeneralMean   float64 `parquet:"name=general_mean, type=DOUBLE"`
	DomainMedian  float64 `parquet:"name=domain_median, type=DOUBLE"`
	GeneralMedian float64 `parquet:"name=general_median, type=DOUBLE"`
	Statistic     float64 `parquet:"name=statistic, type=DOUBLE"`
	PValue        float64 `parquet:"name=p_value, type=DOUBLE"`
	CliffsDelta   float64 `parquet:"name=cliffs_delta, type=DOUBLE"`
	Magnitude     string  `parquet:"name=cliffs_magnitude, type=BYTE_ARRAY, convertedtype=UTF8"`
	LowSample     bool    `parquet:"name=low_sample_warning, type=BOOLEAN"`
	FDR           float64 `parquet:"name=fdr_corrected_p, type=DOUBLE"`
	NegLog10P     float64 `parquet:"name=neg_log10_p, type=DOUBLE"`
	Method        string  `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// EncodeSweepParquet encodes comparisons as a Snappy-compressed Parquet file.
func EncodeSweepParquet(cs []usage.Comparison) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewParquetWriter(pfw, new(comparisonRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, c := range cs {
		row := comparisonRow{
			Threshold:     c.Threshold,
			Category:      c.Category,
			DomainCount:   int64(c.DomainCount),
			GeneralCount:  int64(c.GeneralCount),
			DomainMean:    c.DomainMean,
			GeneralMean:   c.GeneralMean,
			DomainMedian:  c.DomainMedian,
			GeneralMedian: c.GeneralMedian,
			Statistic:     c.Statistic,
			PValue:        c.PValue,
			CliffsDelta:   c.CliffsDelta,
			Magnitude:     c.Magnitude,
			LowSample:     c.LowSample,
			FDR:           c.FDR,
			NegLog10P:     c.NegLog10P,
			Method:        c.Method,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, fmt.Errorf("failed to finish parquet file: %w", err)
	}
	_ = pfw.Close()
	return buf.Bytes(), nil
}

// WriteSweepParquet writes comparisons to path as Parquet.
func WriteSweepParquet(path string, cs []usage.Comparison) error {
	data, err := EncodeSweepParquet(cs)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Report("wrote %d comparisons to %s", len(cs), path)
	return nil
}

// Package csvwriter writes batch prediction results as CSV.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/internal/serving"
)

// Header is the first line of every prediction file.
var Header = []string{"country", "year", "status", "life_expectancy", "bundle_version"}

// Writer writes one line per prediction. It is safe for concurrent use.
type Writer struct {
	closer io.Closer
	writer *csv.Writer
	logger *zap.Logger
	mu     sync.Mutex
	lines  int
}

// NewWriter creates filePath and writes the header.
func NewWriter(filePath string, logger *zap.Logger) (*Writer, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	w, err := newWriter(file, file, logger)
	if err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// NewStreamWriter writes to out, e.g. os.Stdout. Close does not close out.
func NewStreamWriter(out io.Writer, logger *zap.Logger) (*Writer, error) {
	return newWriter(out, nil, logger)
}

func newWriter(out io.Writer, closer io.Closer, logger *zap.Logger) (*Writer, error) {
	w := &Writer{
		closer: closer,
		writer: csv.NewWriter(out),
		logger: logger,
	}
	if err := w.writer.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return w, nil
}

// WritePrediction appends p.
func (w *Writer) WritePrediction(p serving.Prediction) error {
	return w.Write([]string{
		p.Row.Country,
		strconv.FormatFloat(p.Row.Year, 'f', -1, 64),
		p.Row.Status,
		strconv.FormatFloat(p.LifeExpectancy, 'f', 2, 64),
		p.BundleVersion,
	})
}

// Write writes a raw record.
func (w *Writer) Write(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	w.lines++
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	err := w.Flush()
	w.logger.Debug("CSV writer closed", zap.Int("lines", w.lines))
	if w.closer == nil {
		return err
	}
	if cerr := w.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

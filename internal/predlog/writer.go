// Package predlog records served predictions for later auditing.
package predlog

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/internal/config"
)

// Entry はデータベースに保存する推論結果の構造体です。
type Entry struct {
	Time           time.Time `db:"time"`
	RequestID      string    `db:"request_id"`
	BundleVersion  string    `db:"bundle_version"`
	Country        string    `db:"country"`
	Year           float64   `db:"year"`
	Status         string    `db:"status"`
	LifeExpectancy float64   `db:"life_expectancy"`
}

// Writer defines the interface for recording predictions.
// This allows for mocking in tests.
type Writer interface {
	Save(entry Entry)
	Close()
}

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

var columns = []string{"time", "request_id", "bundle_version", "country", "year", "status", "life_expectancy"}

// PostgresWriter はprediction_logテーブルへのバッチ書き込みを担当します。
type PostgresWriter struct {
	pool         Pool
	logger       *zap.Logger
	config       config.PredictionLogConfig
	buffer       []Entry
	bufferMutex  sync.Mutex
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
}

// NewPostgresWriter は新しいPostgresWriterを作成し、バックグラウンドの書き込みを開始します。
// pool が nil の場合は何もしない NopWriter を返します。
func NewPostgresWriter(pool Pool, cfg config.PredictionLogConfig, logger *zap.Logger) Writer {
	if pool == nil {
		logger.Info("Database pool is nil, prediction log is disabled.")
		return NopWriter{}
	}
	if cfg.WriteIntervalSeconds <= 0 {
		logger.Warn("WriteIntervalSeconds is zero or negative, defaulting to 1s.", zap.Int("originalValue", cfg.WriteIntervalSeconds))
		cfg.WriteIntervalSeconds = 1
	}
	if cfg.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, defaulting to 100.", zap.Int("originalValue", cfg.BatchSize))
		cfg.BatchSize = 100
	}

	w := &PostgresWriter{
		pool:         pool,
		logger:       logger,
		config:       cfg,
		buffer:       make([]Entry, 0, cfg.BatchSize),
		flushTicker:  time.NewTicker(time.Duration(cfg.WriteIntervalSeconds) * time.Second),
		shutdownChan: make(chan struct{}),
		done:         make(chan struct{}),
	}
	go w.run()
	logger.Info("Started prediction log writer", zap.Int("batchSize", cfg.BatchSize))
	return w
}

func (w *PostgresWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.flushTicker.C:
			w.flush()
		case <-w.shutdownChan:
			return
		}
	}
}

// Save は推論結果をバッファに追加し、バッチサイズに達したらフラッシュします。
func (w *PostgresWriter) Save(entry Entry) {
	w.bufferMutex.Lock()
	w.buffer = append(w.buffer, entry)
	shouldFlush := len(w.buffer) >= w.config.BatchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// Close はバッファをフラッシュし、接続プールをクローズします。
func (w *PostgresWriter) Close() {
	w.closeOnce.Do(func() {
		w.logger.Info("Closing prediction log writer...")
		close(w.shutdownChan)
		w.flushTicker.Stop()
		<-w.done

		w.flush()
		w.pool.Close()
		w.logger.Info("Prediction log connection pool closed")
	})
}

func (w *PostgresWriter) flush() {
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	if len(w.buffer) == 0 {
		return
	}
	w.logger.Debug("Flushing prediction log", zap.Int("count", len(w.buffer)))
	_, err := w.pool.CopyFrom(
		context.Background(),
		pgx.Identifier{"prediction_log"},
		columns,
		pgx.CopyFromRows(toRows(w.buffer)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert prediction log", zap.Error(err), zap.Int("dropped", len(w.buffer)))
	}
	w.buffer = w.buffer[:0]
}

func toRows(entries []Entry) [][]interface{} {
	rows := make([][]interface{}, len(entries))
	for i, e := range entries {
		rows[i] = []interface{}{e.Time, e.RequestID, e.BundleVersion, e.Country, e.Year, e.Status, e.LifeExpectancy}
	}
	return rows
}

package predlog

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/internal/config"
)

func sampleEntry(country string) Entry {
	return Entry{
		Time:           time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		RequestID:      "req-" + country,
		BundleVersion:  "bundle-test",
		Country:        country,
		Year:           2015,
		Status:         "Developing",
		LifeExpectancy: 61.27,
	}
}

func TestPostgresWriter_ImplementsWriter(t *testing.T) {
	assert.Implements(t, (*Writer)(nil), new(PostgresWriter))
	assert.Implements(t, (*Writer)(nil), new(InMemWriter))
	assert.Implements(t, (*Writer)(nil), NopWriter{})
}

func TestPostgresWriter_FlushesWhenBatchIsFull(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	cfg := config.PredictionLogConfig{BatchSize: 2, WriteIntervalSeconds: 60}
	writer := NewPostgresWriter(mock, cfg, zap.NewNop())

	mock.ExpectCopyFrom(pgx.Identifier{"prediction_log"}, columns).WillReturnResult(2)

	writer.Save(sampleEntry("Afghanistan"))
	writer.Save(sampleEntry("Albania"))
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet(), "there were unfulfilled expectations")
}

func TestPostgresWriter_CloseFlushesRemainder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	cfg := config.PredictionLogConfig{BatchSize: 100, WriteIntervalSeconds: 60}
	writer := NewPostgresWriter(mock, cfg, zap.NewNop())

	mock.ExpectCopyFrom(pgx.Identifier{"prediction_log"}, columns).WillReturnResult(1)

	writer.Save(sampleEntry("Japan"))
	writer.Close()
	// second close is a no-op
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_CopyFailureDropsBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	cfg := config.PredictionLogConfig{BatchSize: 1, WriteIntervalSeconds: 60}
	writer := NewPostgresWriter(mock, cfg, zap.NewNop())

	mock.ExpectCopyFrom(pgx.Identifier{"prediction_log"}, columns).WillReturnError(assert.AnError)

	writer.Save(sampleEntry("Chad"))
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet())
	pw := writer.(*PostgresWriter)
	assert.Empty(t, pw.buffer)
}

func TestPostgresWriter_InvalidConfigFallsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	writer := NewPostgresWriter(mock, config.PredictionLogConfig{}, zap.NewNop())
	pw, ok := writer.(*PostgresWriter)
	require.True(t, ok)
	assert.Equal(t, 100, pw.config.BatchSize)
	assert.Equal(t, 1, pw.config.WriteIntervalSeconds)
	writer.Close()
}

func TestNewPostgresWriter_NilPool(t *testing.T) {
	writer := NewPostgresWriter(nil, config.PredictionLogConfig{BatchSize: 1}, zap.NewNop())
	assert.IsType(t, NopWriter{}, writer)
	writer.Save(sampleEntry("Peru"))
	writer.Close()
}

func TestInMemWriter(t *testing.T) {
	w := NewInMemWriter()
	w.Save(sampleEntry("Chile"))
	w.Save(sampleEntry("Kenya"))
	w.Close()

	got := w.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "Kenya", got[1].Country)
	assert.True(t, w.IsClosed)
}

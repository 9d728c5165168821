package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", plugin.config.DBSystem)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	t.Run("disabled config leaves callbacks untouched", func(t *testing.T) {
		db := setupTracedDB(t)
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.Nil(t, db.Callback().Query().Get("wms_timing:after_query"))
	})

	t.Run("enabled config records query spans", func(t *testing.T) {
		recorder := useSpanRecorder(t)
		db := setupTracedDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		plugin := NewDBTracingPlugin(cfg, zap.NewNop())

		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.NotNil(t, db.Callback().Query().Get("wms_timing:after_query"))

		ctx, span := StartSpan(context.Background(), "test.parent")
		require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "widget"}).Error)
		var rows []tracedRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		span.End()

		assert.Len(t, rows, 1)
		assert.GreaterOrEqual(t, len(recorder.Ended()), 3, "parent plus create and query spans")
	})

	t.Run("slow queries are logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		db := setupTracedDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.SlowQueryThresh = time.Nanosecond
		plugin := NewDBTracingPlugin(cfg, zap.New(core))

		require.NoError(t, plugin.RegisterOtelGorm(db))

		var rows []tracedRow
		require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

		assert.NotZero(t, logs.FilterMessage("Slow query").Len())
	})
}

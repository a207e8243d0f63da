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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTracedDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedModel{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTracedDB(t)

	err := RegisterDBTracing(db, DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, err)

	// No plugin registered, queries run untraced
	require.NoError(t, db.Create(&tracedModel{Name: "untraced"}).Error)
}

func TestRegisterDBTracing_QueriesProduceSpans(t *testing.T) {
	db := setupTracedDB(t)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	// The plugin resolves its tracer from the global provider
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(prev)

	cfg := DBTracingConfig{Enabled: true, DBSystem: "sqlite"}
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	// Run a traced query under a parent span so the plugin records children
	tracer := provider.Tracer("test")
	ctx, parent := tracer.Start(context.Background(), "create-model")
	require.NoError(t, db.WithContext(ctx).Create(&tracedModel{Name: "traced"}).Error)
	parent.End()

	spans := recorder.Ended()
	require.NotEmpty(t, spans)

	var dbSpans int
	for _, s := range spans {
		if s.Name() != "create-model" {
			dbSpans++
		}
	}
	assert.NotZero(t, dbSpans, "expected a query span from the plugin")
}

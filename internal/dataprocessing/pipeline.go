package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"haulpulse/pkg/contracts/domain"
)

// Pipeline validates and normalizes uploads into batches and exposes the engine
// that analyses them. It is safe for concurrent use: it holds only immutable configuration.
type Pipeline struct {
	cfg        Config
	normalizer *Normalizer
	engine     *Engine
	inst       *Instrumentation
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. The configuration is copied; a nil
// instrumentation records to the global OpenTelemetry providers.
func NewPipeline(cfg Config, logger *slog.Logger, inst *Instrumentation) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.clone()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	normalizer, err := NewNormalizer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	if inst == nil {
		inst, err = NewInstrumentation(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation: %w", err)
		}
	}

	return &Pipeline{
		cfg:        cfg,
		normalizer: normalizer,
		engine:     NewEngine(),
		inst:       inst,
		logger:     logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg.clone()
}

// Engine returns the aggregation engine.
func (p *Pipeline) Engine() *Engine {
	return p.engine
}

// LoadOptions returns the load options matching the configured columns.
func (p *Pipeline) LoadOptions() LoadOptions {
	return LoadOptions{HeaderHint: p.cfg.Columns.Date}
}

// Run validates the table schema and normalizes it. A *SchemaError is returned
// when required columns are missing; every other data problem becomes a warning.
func (p *Pipeline) Run(ctx context.Context, table domain.RawTable) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := p.inst.startSpan(ctx, "pipeline.run",
		attribute.String("source", table.Source),
		attribute.Int("rows", len(table.Rows)))
	defer span.End()

	if err := ValidateSchema(table.Header, p.cfg.Columns); err != nil {
		p.inst.recordSchemaFailure(ctx, span, err)
		p.logger.WarnContext(ctx, "Upload rejected",
			slog.String("source", table.Source),
			slog.String("error", err.Error()))
		return nil, err
	}

	_, normSpan := p.inst.startSpan(ctx, "pipeline.normalize")
	batch := p.normalizer.Normalize(table)
	normSpan.End()

	elapsed := time.Since(start)
	p.inst.recordBatch(ctx, span, batch, elapsed)
	p.logger.InfoContext(ctx, "Pipeline completed",
		slog.String("source", table.Source),
		slog.Int("rows_kept", batch.Len()),
		slog.Int("warnings", len(batch.warnings)),
		slog.Duration("duration", elapsed))

	return batch, nil
}

// LoadAndRun loads a file from disk and runs the pipeline over it.
func (p *Pipeline) LoadAndRun(ctx context.Context, path string) (*Batch, error) {
	table, err := LoadFile(path, p.LoadOptions())
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, table)
}

// LoadReaderAndRun loads an upload stream and runs the pipeline over it.
func (p *Pipeline) LoadReaderAndRun(ctx context.Context, r io.Reader, name string) (*Batch, error) {
	table, err := LoadReader(r, name, p.LoadOptions())
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, table)
}

func formatOf(source string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

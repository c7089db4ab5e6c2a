package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/savegress/carebridge/internal/mapping"
	"github.com/savegress/carebridge/pkg/models"
)

// Result statuses
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

// Skip reasons
const (
	ReasonEmptyRecord  = "empty record"
	ReasonNoIdentifier = "no patient identifier"
	ReasonCanceled     = "canceled"
)

// Result is the outcome of translating one record. Skipped records
// carry a reason so batch failures are countable, not just logged.
type Result struct {
	Index   int                      `json:"index"`
	Status  string                   `json:"status"`
	Reason  string                   `json:"reason,omitempty"`
	Patient *models.CanonicalPatient `json:"patient,omitempty"`
}

// Summary aggregates the per-record results of a batch
type Summary struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Results   []Result `json:"results"`
}

// Engine runs batch normalization. Records are independent, so the
// batch is a parallel map over a worker pool; the only shared state is
// the read-only mapping tables.
type Engine struct {
	mapper  *mapping.Mapper
	workers int
	log     *zap.Logger
}

// NewEngine creates a batch engine with the given worker count
func NewEngine(mapper *mapping.Mapper, workers int, log *zap.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		mapper:  mapper,
		workers: workers,
		log:     log,
	}
}

// Normalize maps a batch of raw vendor records to canonical patients.
// The source system is resolved once at the boundary; every record gets
// a Result and a malformed record never aborts the batch. Cancellation
// applies between records, never within one.
func (e *Engine) Normalize(ctx context.Context, records []map[string]string, sourceSystem string) *Summary {
	source := e.mapper.ParseSourceSystem(sourceSystem)

	results := make([]Result, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.normalizeOne(i, records[i], source)
			}
		}()
	}

	canceled := 0
dispatch:
	for i := range records {
		select {
		case <-ctx.Done():
			for j := i; j < len(records); j++ {
				results[j] = Result{Index: j, Status: StatusSkipped, Reason: ReasonCanceled}
				canceled++
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled > 0 {
		e.log.Warn("batch canceled before completion",
			zap.Int("remaining", canceled))
	}

	summary := &Summary{Total: len(records), Results: results}
	for _, r := range results {
		if r.Status == StatusOK {
			summary.Succeeded++
		} else {
			summary.Skipped++
		}
	}

	e.log.Info("batch normalization complete",
		zap.String("source_system", string(source)),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped))

	return summary
}

func (e *Engine) normalizeOne(index int, raw map[string]string, source mapping.SourceSystem) Result {
	if len(raw) == 0 {
		return Result{Index: index, Status: StatusSkipped, Reason: ReasonEmptyRecord}
	}

	patient := e.mapper.MapToCanonical(raw, source)
	if patient.ID == "" {
		return Result{Index: index, Status: StatusSkipped, Reason: ReasonNoIdentifier}
	}

	return Result{Index: index, Status: StatusOK, Patient: patient}
}

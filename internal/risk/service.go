package risk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/savegress/carebridge/pkg/models"
)

// ErrUnknownModel is returned when a caller requests a scoring model
// that was never registered. This is a contract violation, not a
// degradable condition, so it surfaces as an explicit error.
var ErrUnknownModel = errors.New("unknown risk model")

// Scorer produces a risk estimate from the natural-language rendering
// of a canonical record. The actual inference backend is opaque to this
// service.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Service is the registry of named scoring models
type Service struct {
	scorers map[string]Scorer
	log     *zap.Logger
}

// NewService creates a service with the baseline heuristic model
// registered under "baseline"
func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		scorers: make(map[string]Scorer),
		log:     log,
	}
	s.Register("baseline", &heuristicScorer{})
	return s
}

// Register adds a scoring model under a name, replacing any existing
// registration
func (s *Service) Register(name string, scorer Scorer) {
	s.scorers[name] = scorer
}

// Models lists the registered model names
func (s *Service) Models() []string {
	names := make([]string, 0, len(s.scorers))
	for name := range s.scorers {
		names = append(names, name)
	}
	return names
}

// Score renders the record as text and runs the named model over it
func (s *Service) Score(ctx context.Context, model string, record models.CanonicalRecord) (float64, error) {
	scorer, ok := s.scorers[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	text := FormatRecord(record)
	score, err := scorer.Score(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("scoring with model %q failed: %w", model, err)
	}

	s.log.Debug("risk score computed",
		zap.String("model", model),
		zap.Float64("score", score))

	return score, nil
}

// FormatRecord renders a canonical record as the natural-language text
// consumed by scoring models. The output is plain prose; models should
// not rely on field ordering beyond sentence boundaries.
func FormatRecord(record models.CanonicalRecord) string {
	var b strings.Builder

	switch record.Type {
	case models.RecordTypePatient:
		if p := record.Patient; p != nil {
			fmt.Fprintf(&b, "Patient %s", orUnknown(p.ID))
			if p.Name != "" {
				fmt.Fprintf(&b, " (%s)", p.Name)
			}
			if p.Gender != "" {
				fmt.Fprintf(&b, ", gender %s", p.Gender)
			}
			if p.BirthDate != "" {
				fmt.Fprintf(&b, ", born %s", p.BirthDate)
			}
			b.WriteString(".")
		}
	case models.RecordTypeCondition:
		if c := record.Condition; c != nil {
			fmt.Fprintf(&b, "Patient %s has condition %s", orUnknown(c.PatientID), orUnknown(c.Display))
			if c.Code != "" {
				fmt.Fprintf(&b, " (%s %s)", c.CodeSystem, c.Code)
			}
			if c.OnsetDate != "" {
				fmt.Fprintf(&b, " with onset %s", c.OnsetDate)
			}
			b.WriteString(".")
		}
	case models.RecordTypeObservation:
		if o := record.Observation; o != nil {
			fmt.Fprintf(&b, "Patient %s has observation %s", orUnknown(o.PatientID), orUnknown(o.Display))
			if o.Value != nil {
				fmt.Fprintf(&b, " with value %g %s", *o.Value, o.Unit)
			} else if o.ValueString != "" {
				fmt.Fprintf(&b, " with value %q", o.ValueString)
			}
			b.WriteString(".")
		}
	}

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// heuristicScorer is a deterministic stand-in for a real inference
// backend: a fixed base rate nudged by a few high-signal keywords.
type heuristicScorer struct{}

var riskKeywords = map[string]float64{
	"hypertension": 0.25,
	"asthma":       0.15,
	"diabetes":     0.25,
	"heart":        0.30,
	"copd":         0.20,
}

func (h *heuristicScorer) Score(_ context.Context, text string) (float64, error) {
	score := 0.05
	lower := strings.ToLower(text)
	for keyword, weight := range riskKeywords {
		if strings.Contains(lower, keyword) {
			score += weight
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, nil
}

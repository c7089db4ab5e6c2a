package terminology

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/savegress/carebridge/pkg/models"
)

// Terminology systems supported by the mapper
const (
	SystemICD10  = "icd10"
	SystemSNOMED = "snomed"
	SystemLOINC  = "loinc"
	SystemCPT    = "cpt"
	SystemRxNorm = "rxnorm"
)

// Crosswalk categories
const (
	CategoryConditions   = "conditions"
	CategoryObservations = "observations"
)

// Translation is the result of a code translation. Passthrough marks a
// result that came from a resolver echoing the input code rather than a
// real crosswalk hit; callers must not treat such results as a
// semantically verified translation.
type Translation struct {
	Code        string `json:"code"`
	System      string `json:"system"`
	Display     string `json:"display,omitempty"`
	Passthrough bool   `json:"passthrough,omitempty"`
}

// Resolver resolves a code into a target system when the static
// crosswalk has no entry. Implementations may call out to a terminology
// service; the mapper itself stays I/O free.
type Resolver interface {
	Resolve(code, sourceSystem string) (*Translation, error)
}

// crosswalkEntry holds the translations of one code into other systems
// plus its shared display text
type crosswalkEntry struct {
	targets map[string]string
	display string
}

// Mapper translates clinical codes between terminology systems using a
// static bidirectional crosswalk with per-target-system resolver
// fallbacks. All tables are built at construction and never mutated, so
// a single Mapper is safe for concurrent use.
type Mapper struct {
	crosswalk  map[string]map[string]crosswalkEntry
	displays   map[string]string
	systemURIs map[string]string
	uriSystems map[string]string
	resolvers  map[string]Resolver
	log        *zap.Logger
}

// NewMapper creates a Mapper with the built-in crosswalk and echo
// resolvers for every supported system
func NewMapper(log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}

	m := &Mapper{
		crosswalk:  builtinCrosswalk(),
		displays:   builtinDisplays(),
		systemURIs: builtinSystemURIs(),
		resolvers:  make(map[string]Resolver),
		log:        log,
	}

	m.uriSystems = make(map[string]string, len(m.systemURIs))
	for system, uri := range m.systemURIs {
		m.uriSystems[uri] = system
	}

	for _, system := range []string{SystemICD10, SystemSNOMED, SystemLOINC, SystemCPT, SystemRxNorm} {
		m.resolvers[system] = &echoResolver{system: system, mapper: m}
	}

	return m
}

// SetResolver replaces the resolver for a target system. Intended for
// wiring a real terminology service behind one or more systems.
func (m *Mapper) SetResolver(targetSystem string, r Resolver) {
	m.resolvers[targetSystem] = r
}

func builtinCrosswalk() map[string]map[string]crosswalkEntry {
	return map[string]map[string]crosswalkEntry{
		CategoryConditions: {
			// Asthma
			"J45":       {targets: map[string]string{SystemSNOMED: "195967001"}, display: "Asthma"},
			"195967001": {targets: map[string]string{SystemICD10: "J45"}, display: "Asthma"},
			// Hypertension
			"I10":      {targets: map[string]string{SystemSNOMED: "38341003"}, display: "Hypertension"},
			"38341003": {targets: map[string]string{SystemICD10: "I10"}, display: "Hypertension"},
		},
		CategoryObservations: {
			"85354-9": {display: "Blood pressure panel"},
			"8462-4":  {display: "Diastolic blood pressure"},
			"8480-6":  {display: "Systolic blood pressure"},
		},
	}
}

func builtinDisplays() map[string]string {
	return map[string]string{
		"J45":       "Asthma",
		"195967001": "Asthma",
		"I10":       "Hypertension",
		"38341003":  "Hypertension",
		"85354-9":   "Blood pressure panel",
		"8462-4":    "Diastolic blood pressure",
		"8480-6":    "Systolic blood pressure",
	}
}

func builtinSystemURIs() map[string]string {
	return map[string]string{
		SystemICD10:  "http://hl7.org/fhir/sid/icd-10-cm",
		SystemSNOMED: "http://snomed.info/sct",
		SystemLOINC:  "http://loinc.org",
		SystemCPT:    "http://www.ama-assn.org/go/cpt",
		SystemRxNorm: "http://www.nlm.nih.gov/research/umls/rxnorm",
	}
}

// MapCode translates a code from sourceSystem to targetSystem. It
// returns nil when the code is empty or no resolver covers the target
// system. Self-mapping always succeeds with a best-effort display.
func (m *Mapper) MapCode(code, sourceSystem, targetSystem string) *Translation {
	if code == "" {
		return nil
	}

	if sourceSystem == targetSystem {
		return &Translation{
			Code:    code,
			System:  sourceSystem,
			Display: m.Display(code, sourceSystem),
		}
	}

	// Static crosswalk first
	if entry, ok := m.crosswalk[CategoryConditions][code]; ok {
		if mapped, ok := entry.targets[targetSystem]; ok {
			return &Translation{
				Code:    mapped,
				System:  targetSystem,
				Display: entry.display,
			}
		}
	}

	// Fall back to the target system resolver
	resolver, ok := m.resolvers[targetSystem]
	if !ok {
		return nil
	}

	result, err := resolver.Resolve(code, sourceSystem)
	if err != nil {
		m.log.Warn("code resolution failed",
			zap.String("code", code),
			zap.String("source_system", sourceSystem),
			zap.String("target_system", targetSystem),
			zap.Error(err))
		return nil
	}
	if result != nil && result.Passthrough {
		m.log.Warn("no crosswalk entry, passing code through",
			zap.String("code", code),
			zap.String("source_system", sourceSystem),
			zap.String("target_system", targetSystem))
	}

	return result
}

// Display returns the display text for a code. The fallback string is a
// parseable sentinel relied on by downstream consumers; keep its exact
// shape.
func (m *Mapper) Display(code, system string) string {
	if display, ok := m.displays[code]; ok {
		return display
	}
	return fmt.Sprintf("Unknown %s code: %s", system, code)
}

// SystemURI returns the canonical URI for a terminology system,
// returning the identifier unchanged when none is registered so callers
// never receive an empty system.
func (m *Mapper) SystemURI(system string) string {
	if uri, ok := m.systemURIs[system]; ok {
		return uri
	}
	return system
}

// SystemFromURI reverses SystemURI, defaulting to the literal URI for
// unregistered systems
func (m *Mapper) SystemFromURI(uri string) string {
	if system, ok := m.uriSystems[uri]; ok {
		return system
	}
	return uri
}

// Concept builds a CodeableConcept for a code. When display is empty a
// best-effort lookup is used for both the coding display and the
// concept text.
func (m *Mapper) Concept(code, system, display string) *models.CodeableConcept {
	if display == "" {
		display = m.Display(code, system)
	}
	return &models.CodeableConcept{
		Coding: []models.Coding{
			{
				System:  m.SystemURI(system),
				Code:    code,
				Display: display,
			},
		},
		Text: display,
	}
}

// echoResolver is the baseline resolver: it returns the input code
// unchanged under the target system label, marked as a pass-through. A
// production deployment swaps this for a terminology service client.
type echoResolver struct {
	system string
	mapper *Mapper
}

func (r *echoResolver) Resolve(code, sourceSystem string) (*Translation, error) {
	return &Translation{
		Code:        code,
		System:      r.system,
		Display:     r.mapper.Display(code, r.system),
		Passthrough: true,
	}, nil
}

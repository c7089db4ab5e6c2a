package models

// ResourceType represents FHIR resource types
type ResourceType string

const (
	ResourceTypePatient     ResourceType = "Patient"
	ResourceTypeObservation ResourceType = "Observation"
	ResourceTypeCondition   ResourceType = "Condition"
	ResourceTypeBundle      ResourceType = "Bundle"
)

// FHIRResource represents a base FHIR resource
type FHIRResource struct {
	ResourceType ResourceType `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
}

// Identifier represents a business identifier
type Identifier struct {
	Use    string           `json:"use,omitempty"`
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// Coding represents a code from a code system
type Coding struct {
	System       string `json:"system,omitempty"`
	Version      string `json:"version,omitempty"`
	Code         string `json:"code,omitempty"`
	Display      string `json:"display,omitempty"`
	UserSelected bool   `json:"userSelected,omitempty"`
}

// CodeableConcept represents a concept with coding and text
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference represents a reference to another resource
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// HumanName represents a person's name
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Address represents a physical address
type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// ContactPoint represents contact information
type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// Quantity represents a measured amount
type Quantity struct {
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// Patient represents a FHIR Patient resource
type Patient struct {
	FHIRResource
	Name      []HumanName    `json:"name,omitempty"`
	Telecom   []ContactPoint `json:"telecom,omitempty"`
	Gender    string         `json:"gender,omitempty"`
	BirthDate string         `json:"birthDate,omitempty"`
	Address   []Address      `json:"address,omitempty"`
}

// Observation represents a FHIR Observation resource
type Observation struct {
	FHIRResource
	Status            string           `json:"status"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	ValueQuantity     *Quantity        `json:"valueQuantity,omitempty"`
	ValueString       string           `json:"valueString,omitempty"`
}

// Condition represents a FHIR Condition resource
type Condition struct {
	FHIRResource
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	OnsetDateTime     string           `json:"onsetDateTime,omitempty"`
	AbatementDateTime string           `json:"abatementDateTime,omitempty"`
}

// Bundle represents a FHIR Bundle resource. Entry order is part of the
// contract: the Patient entry comes before the observations and
// conditions that reference it, so consumers can resolve references in
// a single pass.
type Bundle struct {
	ResourceType ResourceType  `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry"`
}

// BundleEntry represents a single entry in a Bundle
type BundleEntry struct {
	FullURL  string      `json:"fullUrl,omitempty"`
	Resource interface{} `json:"resource"`
}

package models

// Gender is the canonical administrative gender. Mapping layers must
// normalize vendor codes to one of these four values; raw source codes
// never appear here.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// RecordType discriminates canonical record envelopes
type RecordType string

const (
	RecordTypePatient     RecordType = "patient"
	RecordTypeCondition   RecordType = "condition"
	RecordTypeObservation RecordType = "observation"
)

// TextValue wraps free-text coded attributes such as race and
// ethnicity that carry no structured coding
type TextValue struct {
	Text string `json:"text"`
}

// CanonicalPatient is the normalized patient record, independent of
// source vendor or wire format
type CanonicalPatient struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Gender    Gender     `json:"gender"`
	BirthDate string     `json:"birth_date,omitempty"` // YYYY-MM-DD, empty when unknown
	Race      *TextValue `json:"race,omitempty"`
	Ethnicity *TextValue `json:"ethnicity,omitempty"`
}

// CanonicalCondition is the normalized diagnosis record. When Code is
// set, CodeSystem must be set as well.
type CanonicalCondition struct {
	ID            string `json:"id"`
	PatientID     string `json:"patient_id"`
	Code          string `json:"code,omitempty"`
	CodeSystem    string `json:"system,omitempty"`
	Display       string `json:"display,omitempty"`
	OnsetDate     string `json:"onset_date,omitempty"`
	AbatementDate string `json:"abatement_date,omitempty"`
}

// CanonicalObservation is the normalized observation record. Value and
// ValueString are mutually exclusive: Value carries a numeric result
// with its Unit, ValueString carries everything else.
type CanonicalObservation struct {
	ID                string   `json:"id"`
	PatientID         string   `json:"patient_id"`
	Code              string   `json:"code,omitempty"`
	Display           string   `json:"display,omitempty"`
	Value             *float64 `json:"value,omitempty"`
	Unit              string   `json:"unit,omitempty"`
	ValueString       string   `json:"value_string,omitempty"`
	EffectiveDateTime string   `json:"effective_datetime,omitempty"`
}

// CanonicalRecord is the envelope used when heterogeneous records flow
// through a single channel, e.g. bundle assembly. Exactly one of the
// payload fields matching Type is set.
type CanonicalRecord struct {
	Type        RecordType            `json:"type"`
	Patient     *CanonicalPatient     `json:"patient,omitempty"`
	Condition   *CanonicalCondition   `json:"condition,omitempty"`
	Observation *CanonicalObservation `json:"observation,omitempty"`
}

package hl7v2

import (
	"strings"
)

// Default HL7 v2.x delimiters
const (
	DefaultFieldSeparator     = "|"
	DefaultComponentSeparator = "^"
	DefaultRepetitionSep      = "~"
)

// Well-known segment tags
const (
	SegmentMSH = "MSH"
	SegmentPID = "PID"
	SegmentOBX = "OBX"
	SegmentDG1 = "DG1"
)

// Segment is one occurrence of a segment: the ordered fields of a
// single line, with the segment tag as field zero. Fields are not
// component-split at parse time; which fields carry components depends
// on the segment type and is decided at extraction.
type Segment []string

// Field returns the field at position i, or "" when the segment is too
// short. Missing fields are never an error.
func (s Segment) Field(i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}

// Tag returns the segment-type tag
func (s Segment) Tag() string {
	return s.Field(0)
}

// Message is a parsed wire message: segment occurrences grouped by tag,
// in document order within each tag. A Message is built once per parse
// and never mutated afterwards.
type Message struct {
	segments map[string][]Segment
}

// Segments returns all occurrences of a segment type, in document order
func (m *Message) Segments(tag string) []Segment {
	return m.segments[tag]
}

// First returns the first occurrence of a segment type
func (m *Message) First(tag string) (Segment, bool) {
	segs := m.segments[tag]
	if len(segs) == 0 {
		return nil, false
	}
	return segs[0], true
}

// Has reports whether the message contains at least one occurrence of
// the segment type
func (m *Message) Has(tag string) bool {
	return len(m.segments[tag]) > 0
}

// Empty reports whether the message contains no segments
func (m *Message) Empty() bool {
	return len(m.segments) == 0
}

// Parser parses delimited clinical wire messages
type Parser struct {
	fieldSep     string
	componentSep string
}

// ParserConfig holds parser configuration. Zero values fall back to the
// standard HL7 delimiters.
type ParserConfig struct {
	FieldSeparator     string
	ComponentSeparator string
}

// NewParser creates a new parser
func NewParser(config *ParserConfig) *Parser {
	p := &Parser{
		fieldSep:     DefaultFieldSeparator,
		componentSep: DefaultComponentSeparator,
	}
	if config != nil {
		if config.FieldSeparator != "" {
			p.fieldSep = config.FieldSeparator
		}
		if config.ComponentSeparator != "" {
			p.componentSep = config.ComponentSeparator
		}
	}
	return p
}

// Parse decodes a raw message into segments. It never fails: malformed
// lines become single-field segments under their own first token and
// empty input yields an empty message.
func (p *Parser) Parse(message string) *Message {
	msg := &Message{segments: make(map[string][]Segment)}

	// Normalize line endings
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.ReplaceAll(message, "\r", "\n")

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := Segment(strings.Split(line, p.fieldSep))
		tag := fields.Tag()
		msg.segments[tag] = append(msg.segments[tag], fields)
	}

	return msg
}

// Components splits a field into its components
func (p *Parser) Components(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, p.componentSep)
}

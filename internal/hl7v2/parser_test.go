package hl7v2

import (
	"testing"
)

const sampleMessage = "MSH|^~\\&|SENDER|FAC|RECEIVER|FAC|20240101120000||ADT^A01|MSG001|P|2.5\n" +
	"PID|1||TEST123||Doe^John||19900115|M\n" +
	"OBX|1|NM|8480-6^Systolic blood pressure||120|mmHg|||||F|||20240101\n" +
	"DG1|1||I10^Essential hypertension||20231201"

func TestParse(t *testing.T) {
	p := NewParser(nil)
	msg := p.Parse(sampleMessage)

	for _, tag := range []string{SegmentMSH, SegmentPID, SegmentOBX, SegmentDG1} {
		if !msg.Has(tag) {
			t.Errorf("expected segment %s", tag)
		}
	}

	pid, ok := msg.First(SegmentPID)
	if !ok {
		t.Fatal("expected PID segment")
	}
	if pid.Tag() != "PID" {
		t.Errorf("expected tag PID, got %s", pid.Tag())
	}
	if pid.Field(3) != "TEST123" {
		t.Errorf("expected PID.3 TEST123, got %s", pid.Field(3))
	}
	// The tag itself is field zero
	if pid.Field(0) != "PID" {
		t.Errorf("expected field 0 to be the tag, got %s", pid.Field(0))
	}
}

func TestParse_RepeatedSegments(t *testing.T) {
	raw := "MSH|^~\\&|A|B\n" +
		"OBX|1|NM|8480-6||120|mmHg\n" +
		"OBX|2|NM|8462-4||80|mmHg"

	p := NewParser(nil)
	msg := p.Parse(raw)

	segs := msg.Segments(SegmentOBX)
	if len(segs) != 2 {
		t.Fatalf("expected 2 OBX occurrences, got %d", len(segs))
	}
	// Document order within a tag is preserved
	if segs[0].Field(3) != "8480-6" || segs[1].Field(3) != "8462-4" {
		t.Errorf("OBX occurrences out of order: %s, %s", segs[0].Field(3), segs[1].Field(3))
	}
}

func TestParse_EmptyInput(t *testing.T) {
	p := NewParser(nil)

	msg := p.Parse("")
	if !msg.Empty() {
		t.Error("expected empty message for empty input")
	}

	msg = p.Parse("\n\n\n")
	if !msg.Empty() {
		t.Error("expected empty message for blank lines")
	}
}

func TestParse_MalformedLine(t *testing.T) {
	p := NewParser(nil)

	// A line without any separator still becomes a one-field segment
	msg := p.Parse("GARBAGE")
	segs := msg.Segments("GARBAGE")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if len(segs[0]) != 1 {
		t.Errorf("expected a single field, got %d", len(segs[0]))
	}
}

func TestParse_CarriageReturns(t *testing.T) {
	p := NewParser(nil)

	msg := p.Parse("PID|1||A\rOBX|1\r\nDG1|1")
	if !msg.Has(SegmentPID) || !msg.Has(SegmentOBX) || !msg.Has(SegmentDG1) {
		t.Error("expected CR and CRLF line endings to be handled")
	}
}

func TestParse_CustomSeparator(t *testing.T) {
	p := NewParser(&ParserConfig{FieldSeparator: "#"})

	msg := p.Parse("PID#1##TEST123")
	pid, ok := msg.First(SegmentPID)
	if !ok {
		t.Fatal("expected PID segment")
	}
	if pid.Field(3) != "TEST123" {
		t.Errorf("expected TEST123, got %s", pid.Field(3))
	}
}

func TestSegment_Field(t *testing.T) {
	seg := Segment{"PID", "1", "", "TEST123"}

	if seg.Field(3) != "TEST123" {
		t.Errorf("unexpected field: %s", seg.Field(3))
	}
	// Out-of-range access degrades to empty, never panics
	if seg.Field(99) != "" {
		t.Error("expected empty field beyond segment length")
	}
	if seg.Field(-1) != "" {
		t.Error("expected empty field for negative index")
	}
}

func TestComponents(t *testing.T) {
	p := NewParser(nil)

	comps := p.Components("Doe^John^M")
	if len(comps) != 3 {
		t.Fatalf("expected 3 components, got %d", len(comps))
	}
	if comps[0] != "Doe" || comps[1] != "John" {
		t.Errorf("unexpected components: %v", comps)
	}

	if p.Components("") != nil {
		t.Error("expected nil components for empty field")
	}
}

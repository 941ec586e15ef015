package sensors

import (
	"fmt"
	"math"
	"testing"
)

func withChecksum(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, cs)
}

func TestParseAccelSentence(t *testing.T) {
	p := NewSentenceParser()
	line := withChecksum("PACCL,0.012,-0.998,0.031")

	v, ok, err := ParseAccelSentence(p, line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	if !ok {
		t.Fatalf("expected accel sentence")
	}
	if math.Abs(v.X()-0.012) > 1e-9 || math.Abs(v.Y()+0.998) > 1e-9 || math.Abs(v.Z()-0.031) > 1e-9 {
		t.Fatalf("unexpected vector %v", v)
	}
}

func TestParseAccelSentenceBadChecksum(t *testing.T) {
	p := NewSentenceParser()
	if _, _, err := ParseAccelSentence(p, "$PACCL,0,1,0*00"); err == nil {
		t.Fatalf("expected checksum error")
	}
}

func TestParseAccelSentenceBadField(t *testing.T) {
	p := NewSentenceParser()
	if _, _, err := ParseAccelSentence(p, withChecksum("PACCL,abc,1,0")); err == nil {
		t.Fatalf("expected field error")
	}
}

func TestParseAccelSentenceIgnoresOtherTypes(t *testing.T) {
	p := NewSentenceParser()
	line := withChecksum("GPRMC,235236,A,3925.9479,N,11945.9211,W,44.7,153.6,250905,15.2,E,A")
	_, ok, err := ParseAccelSentence(p, line)
	if err != nil {
		t.Fatalf("parse rmc: %v", err)
	}
	if ok {
		t.Fatalf("rmc sentence reported as accel")
	}
}

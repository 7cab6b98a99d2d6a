package render

import (
	"strings"
	"testing"
)

func TestSplice_EmptyFile(t *testing.T) {
	got := string(Splice(nil, Region("key: value\n")))
	if !strings.HasPrefix(got, StartMarker+"\n") {
		t.Errorf("missing start marker: %q", got)
	}
	if !strings.HasSuffix(got, EndMarker+"\n") {
		t.Errorf("missing end marker: %q", got)
	}
	if !strings.Contains(got, "key: value\n") {
		t.Errorf("missing payload: %q", got)
	}
}

func TestSplice_ReplacesExistingRegion(t *testing.T) {
	before := "# my notes\n" +
		Region("old: 1\n") +
		"trailing: user content\n"

	got := string(Splice([]byte(before), Region("new: 2\n")))

	if !strings.HasPrefix(got, "# my notes\n") {
		t.Errorf("content before the region not preserved: %q", got)
	}
	if !strings.HasSuffix(got, "trailing: user content\n") {
		t.Errorf("content after the region not preserved: %q", got)
	}
	if strings.Contains(got, "old: 1") {
		t.Errorf("old payload still present: %q", got)
	}
	if !strings.Contains(got, "new: 2") {
		t.Errorf("new payload missing: %q", got)
	}
}

func TestSplice_FirstOccurrenceOnly(t *testing.T) {
	// User prose after the real region contains marker-like text.
	decoy := "# note to self: the block between " + StartMarker + " and " + EndMarker + " is generated\n"
	before := Region("old: 1\n") + decoy

	got := string(Splice([]byte(before), Region("new: 2\n")))

	if !strings.Contains(got, "note to self") {
		t.Errorf("decoy line mangled: %q", got)
	}
	if strings.Count(got, "new: 2") != 1 {
		t.Errorf("expected exactly one replacement: %q", got)
	}
}

func TestSplice_MarkersAbsent(t *testing.T) {
	before := "user: stuff\nmore: lines\n"
	got := string(Splice([]byte(before), Region("gen: 1\n")))

	if !strings.HasPrefix(got, StartMarker) {
		t.Errorf("region not inserted at top: %q", got)
	}
	if !strings.HasSuffix(got, before) {
		t.Errorf("existing content not preserved below: %q", got)
	}
}

func TestSplice_Idempotent(t *testing.T) {
	region := Region("a: 1\nb: 2\n")
	once := Splice([]byte("before\n"+region+"after\n"), region)
	twice := Splice(once, region)
	if string(once) != string(twice) {
		t.Errorf("splice not idempotent:\n%q\nvs\n%q", once, twice)
	}
}

func TestExtract(t *testing.T) {
	content := "junk above\n" + Region("flag: true\n") + "junk below\n"
	payload, ok := Extract([]byte(content))
	if !ok {
		t.Fatal("managed region not found")
	}
	if payload != "flag: true\n" {
		t.Errorf("payload = %q, want %q", payload, "flag: true\n")
	}

	if _, ok := Extract([]byte("no markers here\n")); ok {
		t.Error("Extract reported a region in plain content")
	}
}

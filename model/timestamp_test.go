package model

import "testing"

func TestFromMillisecondsRejectsNegative(t *testing.T) {
	if _, err := FromMilliseconds(-1); err == nil {
		t.Error("expected error for negative milliseconds")
	}
}

func TestTimestampStringRoundTrip(t *testing.T) {
	ts := MustFromMilliseconds(3*3600_000 + 25*60_000 + 9*1000 + 250)
	want := "03:25:09.250"
	if got := ts.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	parsed, err := ParseTimestamp(want)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) returned error: %v", want, err)
	}
	if parsed.Milliseconds() != ts.Milliseconds() {
		t.Errorf("expected round trip %d, got %d", ts.Milliseconds(), parsed.Milliseconds())
	}
}

func TestParseTimestampMinuteSecond(t *testing.T) {
	parsed, err := ParseTimestamp("02:30")
	if err != nil {
		t.Fatalf("ParseTimestamp returned error: %v", err)
	}
	if parsed.Milliseconds() != 150_000 {
		t.Errorf("expected 150000ms, got %d", parsed.Milliseconds())
	}
}

func TestParseTimestampRejectsNegative(t *testing.T) {
	if _, err := ParseTimestamp("-01:00"); err == nil {
		t.Error("expected error for negative timestamp")
	}
}

func TestParseTimestampRejectsEmpty(t *testing.T) {
	if _, err := ParseTimestamp(""); err == nil {
		t.Error("expected error for empty timestamp")
	}
}

func TestCompareAndLess(t *testing.T) {
	a := MustFromMilliseconds(1000)
	b := MustFromMilliseconds(2000)
	if !a.Less(b) {
		t.Error("expected a < b")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare did not return expected ordering values")
	}
}

func TestMinuteSecondString(t *testing.T) {
	ts := MustFromMilliseconds(90_000)
	if got := ts.MinuteSecondString(); got != "01:30" {
		t.Errorf("expected 01:30, got %q", got)
	}
}

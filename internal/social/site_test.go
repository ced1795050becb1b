package social

import (
	"testing"

	"bandsim/internal/bands"
	"bandsim/internal/environ"
)

func TestSiteAccumulatesMonotonically(t *testing.T) {
	s := NewSite("Macon Ridge", 250, 250, 0.35)

	prev := 0.0
	for year := 0; year < 10; year++ {
		s.ResetYear()
		s.ReceiveInvestment(0.5)
		s.ReceiveInvestment(-1.0) // negative contributions are ignored
		if s.Monument() < prev {
			t.Fatalf("monument decreased: %v < %v", s.Monument(), prev)
		}
		prev = s.Monument()
		s.RecordExotic()
	}
	if s.Monument() != 5.0 {
		t.Fatalf("monument: got %v want 5.0", s.Monument())
	}
	if s.Exotics() != 10 {
		t.Fatalf("exotics: got %d want 10", s.Exotics())
	}
}

func TestAttendanceResetsAndDeduplicates(t *testing.T) {
	s := NewSite("Macon Ridge", 250, 250, 0.35)
	a := bands.New(1, 20, 0, 0, environ.Aquatic, bands.Aggregator, 0.5)
	b := bands.New(2, 30, 10, 10, environ.Mast, bands.Aggregator, 0.5)

	s.Attend(a)
	s.Attend(a)
	s.Attend(b)
	if s.Attendance() != 2 {
		t.Fatalf("attendance: got %d want 2", s.Attendance())
	}
	if s.Headcount() != 50 {
		t.Fatalf("headcount: got %d want 50", s.Headcount())
	}

	s.ResetYear()
	if s.Attendance() != 0 || s.Headcount() != 0 {
		t.Fatalf("attendance not cleared: %d bands, %d people", s.Attendance(), s.Headcount())
	}
}

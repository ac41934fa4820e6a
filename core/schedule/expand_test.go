package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestExpand_noRecurrence(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	rule := Rule{ScheduledAt: anchor, Recurrence: RecurrenceNone, StartDaysBefore: 3}

	got := Expand(rule, date(2025, time.January, 10))
	want := []time.Time{anchor}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand() = %v, want %v", got, want)
	}
}

func TestExpand_daily(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	expiry := date(2025, time.January, 10)
	rule := Rule{ScheduledAt: anchor, Recurrence: RecurrenceDaily, StartDaysBefore: 3}

	// cursor starts at Jan 7; first step lands on Jan 8 (emit), then Jan 9
	// (emit), then Jan 10 which is the expiry day and never fires.
	got := Expand(rule, expiry)
	want := []time.Time{anchor, date(2025, time.January, 8), date(2025, time.January, 9)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand() = %v, want %v", got, want)
	}
}

func TestExpand_every2Days(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	expiry := date(2025, time.January, 10)
	rule := Rule{ScheduledAt: anchor, Recurrence: RecurrenceEvery2Days, StartDaysBefore: 3}

	// cursor Jan 7 -> Jan 9 (emit) -> Jan 11 (past expiry, stop).
	got := Expand(rule, expiry)
	want := []time.Time{anchor, date(2025, time.January, 9)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand() = %v, want %v", got, want)
	}
}

func TestExpand_anchorOutsideWindowKept(t *testing.T) {
	// The anchor is the explicit user choice; it stays first even when it
	// postdates the expiry.
	anchor := time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	got := Expand(Rule{ScheduledAt: anchor, Recurrence: RecurrenceDaily, StartDaysBefore: 2}, date(2025, time.January, 10))
	if len(got) == 0 || !got[0].Equal(anchor) {
		t.Errorf("Expand() first occurrence = %v, want anchor %v", got, anchor)
	}
}

func TestExpand_idempotent(t *testing.T) {
	rule := Rule{
		ScheduledAt:     time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC),
		Recurrence:      RecurrenceDaily,
		StartDaysBefore: 7,
	}
	expiry := date(2025, time.January, 10)

	first := Expand(rule, expiry)
	second := Expand(rule, expiry)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expand() not idempotent: %v != %v", first, second)
	}
}

func TestExpand_clampsStartDays(t *testing.T) {
	expiry := date(2025, time.January, 10)
	anchor := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startDays int
		wantLen   int // anchor + emitted recurrences
	}{
		{name: "zero clamped to 1", startDays: 0, wantLen: 1},   // window [Jan 9, Jan 10): no stepped emission
		{name: "negative clamped to 1", startDays: -4, wantLen: 1},
		{name: "over max clamped to 7", startDays: 30, wantLen: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{ScheduledAt: anchor, Recurrence: RecurrenceDaily, StartDaysBefore: tt.startDays}
			if got := Expand(rule, expiry); len(got) != tt.wantLen {
				t.Errorf("len(Expand()) = %d, want %d (%v)", len(got), tt.wantLen, got)
			}
		})
	}
}

func TestExpand_terminates(t *testing.T) {
	expiry := date(2025, time.June, 1)
	anchor := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

	for _, rec := range []Recurrence{RecurrenceDaily, RecurrenceEvery2Days} {
		for days := MinStartDaysBefore; days <= MaxStartDaysBefore; days++ {
			got := Expand(Rule{ScheduledAt: anchor, Recurrence: rec, StartDaysBefore: days}, expiry)
			// emitted recurrences are bounded by the window size
			if len(got)-1 > days {
				t.Errorf("%s/%d: %d recurrences exceed window", rec, days, len(got)-1)
			}
		}
	}
}

func TestExpand_acrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// Expiry 3 days after the 2025-03-09 spring-forward; occurrences must
	// land on consecutive calendar days regardless of the 23h local day.
	expiry := time.Date(2025, time.March, 12, 0, 0, 0, 0, loc)
	rule := Rule{
		ScheduledAt:     time.Date(2025, time.March, 5, 9, 0, 0, 0, loc),
		Recurrence:      RecurrenceDaily,
		StartDaysBefore: 4,
	}

	got := Expand(rule, expiry)
	end := DateOf(expiry)
	prev := DateOf(got[1])
	for _, occ := range got[2:] {
		d := DateOf(occ)
		if int(d.Sub(prev).Hours()/24) != 1 {
			t.Errorf("non-consecutive occurrence days: %v -> %v", prev, d)
		}
		prev = d
	}
	if !prev.Before(end) {
		t.Errorf("last occurrence %v not before expiry day %v", prev, end)
	}
}

func TestOccursOn(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	expiry := date(2025, time.January, 10)
	rule := Rule{ScheduledAt: anchor, Recurrence: RecurrenceDaily, StartDaysBefore: 3}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{name: "anchor day", day: date(2025, time.January, 1), want: true},
		{name: "recurrence day", day: date(2025, time.January, 8), want: true},
		{name: "expiry day", day: date(2025, time.January, 10), want: false},
		{name: "quiet day", day: date(2025, time.January, 5), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OccursOn(rule, expiry, tt.day); got != tt.want {
				t.Errorf("OccursOn(%s) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

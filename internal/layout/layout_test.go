package layout

import (
	"reflect"
	"testing"
)

func TestPositionConcreteScenario(t *testing.T) {
	// 9:00-10:00 and 9:30-10:30 at 60px/h over a full-day window.
	a := Position(540, 600, 0, 1440, 60, 24)
	b := Position(570, 630, 0, 1440, 60, 24)

	if a.Top != 540 || a.Height != 60 {
		t.Errorf("A: got top=%v height=%v, want 540/60", a.Top, a.Height)
	}
	if b.Top != 570 || b.Height != 60 {
		t.Errorf("B: got top=%v height=%v, want 570/60", b.Top, b.Height)
	}
}

func TestPositionMinHeightFloor(t *testing.T) {
	// 5 minutes at 60px/h is 5px, below the 24px floor.
	box := Position(600, 605, 0, 1440, 60, 24)
	if box.Height != 24 {
		t.Errorf("got height=%v, want exactly 24", box.Height)
	}
}

func TestPositionClampsToWindow(t *testing.T) {
	// Item starting before the visible window lands at top 0.
	box := Position(-30, 60, 0, 1440, 60, 24)
	if box.Top != 0 {
		t.Errorf("got top=%v, want 0", box.Top)
	}

	// Item running past the window is truncated, not overflowing.
	box = Position(1380, 1500, 0, 1440, 60, 24)
	if box.Top != 1380 || box.Height != 60 {
		t.Errorf("got top=%v height=%v, want 1380/60", box.Top, box.Height)
	}
}

func TestPositionDegenerateIntervalNeverNegative(t *testing.T) {
	// Entirely outside the window on the wrong side: clamped to a
	// zero-length span, floored at the minimum height.
	box := Position(100, 200, 600, 1440, 60, 24)
	if box.Top != 0 {
		t.Errorf("got top=%v, want 0", box.Top)
	}
	if box.Height != 24 {
		t.Errorf("got height=%v, want floor 24", box.Height)
	}
}

func TestPositionMonotonicTop(t *testing.T) {
	prev := -1.0
	for start := 0; start < 1440; start += 7 {
		box := Position(start, start+30, 0, 1440, 48, 20)
		if box.Top < prev {
			t.Fatalf("top not monotonic at start=%d: %v < %v", start, box.Top, prev)
		}
		prev = box.Top
	}
}

func TestPixelToTimeSnapping(t *testing.T) {
	cases := []struct {
		y          float64
		snap       int
		wantHour   int
		wantMinute int
	}{
		{0, 15, 0, 0},
		{540, 15, 9, 0},
		{548, 15, 9, 15},   // 9:08 snaps up
		{552, 30, 9, 0},    // 9:12 snaps down at 30m
		{100000, 15, 24, 0}, // clamped to end of day
	}
	for _, tc := range cases {
		h, m := PixelToTime(tc.y, 0, 60, tc.snap)
		if h != tc.wantHour || m != tc.wantMinute {
			t.Errorf("PixelToTime(%v, snap=%d) = %d:%02d, want %d:%02d",
				tc.y, tc.snap, h, m, tc.wantHour, tc.wantMinute)
		}
	}
}

func TestPixelToTimeRespectsWindowStart(t *testing.T) {
	// Window starting at 07:00: y=0 maps to 07:00, negative y clamps there.
	h, m := PixelToTime(0, 420, 60, 15)
	if h != 7 || m != 0 {
		t.Errorf("got %d:%02d, want 7:00", h, m)
	}
	h, m = PixelToTime(-50, 420, 60, 15)
	if h != 7 || m != 0 {
		t.Errorf("negative y: got %d:%02d, want 7:00", h, m)
	}
}

func TestPackColumnsConcreteScenario(t *testing.T) {
	items := []ScheduledItem{
		{ID: "A", StartMinutes: 540, EndMinutes: 600},
		{ID: "B", StartMinutes: 570, EndMinutes: 630},
	}
	got := PackColumns(items)

	if got["A"] != (Placement{Column: 0, TotalColumns: 2}) {
		t.Errorf("A: got %+v", got["A"])
	}
	if got["B"] != (Placement{Column: 1, TotalColumns: 2}) {
		t.Errorf("B: got %+v", got["B"])
	}
}

func TestPackColumnsDeterministic(t *testing.T) {
	// Same set in two different input orders must produce identical
	// assignments.
	a := []ScheduledItem{
		{ID: "x", StartMinutes: 0, EndMinutes: 90},
		{ID: "y", StartMinutes: 30, EndMinutes: 60},
		{ID: "z", StartMinutes: 45, EndMinutes: 120},
		{ID: "w", StartMinutes: 200, EndMinutes: 260},
	}
	b := []ScheduledItem{a[3], a[1], a[0], a[2]}

	if !reflect.DeepEqual(PackColumns(a), PackColumns(b)) {
		t.Errorf("assignments differ across input orders:\n%v\n%v", PackColumns(a), PackColumns(b))
	}
}

func TestPackColumnsNoCollision(t *testing.T) {
	items := []ScheduledItem{
		{ID: "a", StartMinutes: 540, EndMinutes: 660},
		{ID: "b", StartMinutes: 560, EndMinutes: 600},
		{ID: "c", StartMinutes: 580, EndMinutes: 700},
		{ID: "d", StartMinutes: 660, EndMinutes: 720},
		{ID: "e", StartMinutes: 690, EndMinutes: 750},
	}
	got := PackColumns(items)

	for i := range items {
		for j := i + 1; j < len(items); j++ {
			x, y := items[i], items[j]
			if x.StartMinutes < y.EndMinutes && y.StartMinutes < x.EndMinutes {
				if got[x.ID].Column == got[y.ID].Column {
					t.Errorf("overlapping %s and %s share column %d", x.ID, y.ID, got[x.ID].Column)
				}
			}
		}
	}
}

func TestPackColumnsAllMutuallyOverlapping(t *testing.T) {
	items := []ScheduledItem{
		{ID: "a", StartMinutes: 0, EndMinutes: 60},
		{ID: "b", StartMinutes: 0, EndMinutes: 60},
		{ID: "c", StartMinutes: 0, EndMinutes: 60},
		{ID: "d", StartMinutes: 0, EndMinutes: 60},
	}
	got := PackColumns(items)

	seen := map[int]bool{}
	for _, it := range items {
		p := got[it.ID]
		if p.TotalColumns != 4 {
			t.Errorf("%s: TotalColumns=%d, want 4", it.ID, p.TotalColumns)
		}
		if p.Column < 0 || p.Column > 3 || seen[p.Column] {
			t.Errorf("%s: bad or duplicate column %d", it.ID, p.Column)
		}
		seen[p.Column] = true
	}
}

func TestPackColumnsNonOverlapCompaction(t *testing.T) {
	// Sequential half-hour slots all reuse column 0.
	var items []ScheduledItem
	for i := 0; i < 6; i++ {
		items = append(items, ScheduledItem{
			ID:           string(rune('a' + i)),
			StartMinutes: 540 + i*30,
			EndMinutes:   540 + (i+1)*30,
		})
	}
	got := PackColumns(items)
	for _, it := range items {
		if got[it.ID] != (Placement{Column: 0, TotalColumns: 1}) {
			t.Errorf("%s: got %+v, want column 0 of 1", it.ID, got[it.ID])
		}
	}
}

func TestPackColumnsTouchingIsNotOverlap(t *testing.T) {
	got := PackColumns([]ScheduledItem{
		{ID: "a", StartMinutes: 0, EndMinutes: 60},
		{ID: "b", StartMinutes: 60, EndMinutes: 120},
	})
	if got["a"].Column != 0 || got["b"].Column != 0 {
		t.Errorf("back-to-back items should share column 0: %v", got)
	}
	if got["a"].TotalColumns != 1 {
		t.Errorf("TotalColumns=%d, want 1", got["a"].TotalColumns)
	}
}

func TestPackColumnsLongerItemPacksLeftOnTiedStart(t *testing.T) {
	got := PackColumns([]ScheduledItem{
		{ID: "short", StartMinutes: 600, EndMinutes: 630},
		{ID: "long", StartMinutes: 600, EndMinutes: 720},
	})
	if got["long"].Column != 0 {
		t.Errorf("long item got column %d, want 0", got["long"].Column)
	}
	if got["short"].Column != 1 {
		t.Errorf("short item got column %d, want 1", got["short"].Column)
	}
}

func TestPackColumnsEmpty(t *testing.T) {
	got := PackColumns(nil)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

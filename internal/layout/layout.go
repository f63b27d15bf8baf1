// Package layout computes the geometry of a calendar day view: vertical
// pixel placement of timed blocks and horizontal column assignment for
// blocks that overlap in time. Everything here is pure arithmetic over
// an immutable input snapshot; callers re-run the full computation
// whenever the visible item set changes.
package layout

import (
	"sort"
)

// ScheduledItem is one timed block on a single calendar day.
//
// StartMinutes/EndMinutes are minutes since local midnight with
// 0 <= start < end <= 1440. Cross-midnight items must be split by the
// caller before layout; open-ended items must be given a concrete end.
type ScheduledItem struct {
	ID           string
	StartMinutes int
	EndMinutes   int
}

// Box is the vertical placement of an item in the day grid.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Placement is the horizontal slot assignment of an item among the
// items it overlaps with.
type Placement struct {
	Column       int `json:"column"`
	TotalColumns int `json:"total_columns"`
}

// Position converts an item's minute interval into pixel geometry for a
// grid showing [visibleStart, visibleEnd) at pixelsPerHour scale.
//
// Both endpoints are clamped to the visible window first, so items that
// spill outside the window are truncated rather than producing negative
// offsets. Height is floored at minHeightPx so very short items stay
// readable; it never goes negative even for degenerate input.
func Position(startMinutes, endMinutes, visibleStart, visibleEnd int, pixelsPerHour, minHeightPx float64) Box {
	start := clampInt(startMinutes, visibleStart, visibleEnd)
	end := clampInt(endMinutes, visibleStart, visibleEnd)

	top := float64(start-visibleStart) / 60 * pixelsPerHour

	span := end - start
	if span < 0 {
		span = 0
	}
	height := float64(span) / 60 * pixelsPerHour
	if height < minHeightPx {
		height = minHeightPx
	}

	return Box{Top: top, Height: height}
}

// PixelToTime is the reverse of Position: it maps a vertical pixel
// offset back to a wall-clock time, rounded to the nearest snapMinutes
// (e.g. 15 or 30) and clamped to [visibleStart, end of day]. Used for
// click/drag-to-create interactions.
func PixelToTime(y float64, visibleStart int, pixelsPerHour float64, snapMinutes int) (hour, minute int) {
	if pixelsPerHour <= 0 {
		pixelsPerHour = 60
	}
	if snapMinutes <= 0 {
		snapMinutes = 1
	}

	minutes := visibleStart + int(y/pixelsPerHour*60+0.5)

	// Round to the nearest snap increment.
	minutes = (minutes + snapMinutes/2) / snapMinutes * snapMinutes

	minutes = clampInt(minutes, visibleStart, 1440)
	return minutes / 60, minutes % 60
}

// PackColumns assigns each item a column index such that any two items
// whose [start, end) intervals intersect land in different columns.
//
// Greedy interval coloring: items are processed in start order (ties
// broken by longer duration first, so simultaneous starts pack the
// longer block leftmost) and each item takes the first column that is
// free by its start time. Back-to-back items (a.end == b.start) are not
// in conflict and may share a column.
//
// TotalColumns is the final number of columns opened across the whole
// call — one global value per layout pass, so every block in the day
// grid renders at the same width.
func PackColumns(items []ScheduledItem) map[string]Placement {
	out := make(map[string]Placement, len(items))
	if len(items) == 0 {
		return out
	}

	sorted := make([]ScheduledItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartMinutes != sorted[j].StartMinutes {
			return sorted[i].StartMinutes < sorted[j].StartMinutes
		}
		di := sorted[i].EndMinutes - sorted[i].StartMinutes
		dj := sorted[j].EndMinutes - sorted[j].StartMinutes
		return di > dj
	})

	// columnEnds[c] is the end time of the last item placed in column c.
	columnEnds := make([]int, 0, 4)

	for _, it := range sorted {
		assigned := -1
		for c, end := range columnEnds {
			if end <= it.StartMinutes {
				assigned = c
				break
			}
		}
		if assigned == -1 {
			columnEnds = append(columnEnds, it.EndMinutes)
			assigned = len(columnEnds) - 1
		} else {
			columnEnds[assigned] = it.EndMinutes
		}
		out[it.ID] = Placement{Column: assigned}
	}

	total := len(columnEnds)
	for id, p := range out {
		p.TotalColumns = total
		out[id] = p
	}

	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package chart

import (
	"time"

	"github.com/afroash/fevertrack/internal/models"
)

// assignLanes distributes medication labels across a small fixed number
// of horizontal lanes stacked above the plot, so labels of events close
// in time land on different heights. Greedy first fit over events sorted
// ascending by time: each event takes the lowest lane whose previous
// occupant is at least window older. When every lane is busy within the
// window, the event falls back to position mod maxLanes — labels may
// overlap then, which is accepted degradation rather than an error.
//
// Events must already be sorted ascending by GivenAt (stable, so equal
// timestamps keep input order).
func assignLanes(sorted []*models.MedicationEvent, maxLanes int, window time.Duration) []int {
	// Zero time marks an unassigned lane.
	lastUsed := make([]time.Time, maxLanes)
	lanes := make([]int, len(sorted))

	for i, ev := range sorted {
		lane := -1
		for li := 0; li < maxLanes; li++ {
			if lastUsed[li].IsZero() || ev.GivenAt.Sub(lastUsed[li]) >= window {
				lane = li
				break
			}
		}
		if lane < 0 {
			lane = i % maxLanes
		}
		lastUsed[lane] = ev.GivenAt
		lanes[i] = lane
	}

	return lanes
}

// maxLane returns the highest lane index in use, 0 when empty.
func maxLane(lanes []int) int {
	max := 0
	for _, l := range lanes {
		if l > max {
			max = l
		}
	}
	return max
}

package analytics

import (
	"cmp"
	"slices"

	"admindash/internal/model"
	"admindash/internal/util"
)

const TopRegions = 10

type RegionRow struct {
	Region  string  `json:"region"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// RegionBreakdown is the derived region view. With no region selected it
// ranks regions by count, descending, and keeps the top ten. With a region
// selected it keeps only that region. Every row carries the mean count over
// all regions, not just the kept ones.
func RegionBreakdown(byRegion []model.RegionCount, selected util.Optional[string]) []RegionRow {
	average := meanCount(byRegion)

	var kept []model.RegionCount
	if selected.IsSet {
		for _, rc := range byRegion {
			if rc.Region == selected.Val {
				kept = append(kept, rc)
			}
		}
	} else {
		kept = slices.Clone(byRegion)
		slices.SortStableFunc(kept, func(a, b model.RegionCount) int {
			return cmp.Compare(b.Count, a.Count)
		})
		if len(kept) > TopRegions {
			kept = kept[:TopRegions]
		}
	}

	rows := make([]RegionRow, 0, len(kept))
	for _, rc := range kept {
		rows = append(rows, RegionRow{Region: rc.Region, Count: rc.Count, Average: average})
	}
	return rows
}

func meanCount(byRegion []model.RegionCount) float64 {
	if len(byRegion) == 0 {
		return 0
	}
	total := 0
	for _, rc := range byRegion {
		total += rc.Count
	}
	return float64(total) / float64(len(byRegion))
}

// Regions lists region names in snapshot order, for the region selector.
func Regions(byRegion []model.RegionCount) []string {
	names := make([]string, 0, len(byRegion))
	for _, rc := range byRegion {
		names = append(names, rc.Region)
	}
	return names
}

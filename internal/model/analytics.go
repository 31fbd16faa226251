package model

import (
	"slices"
	"time"

	"admindash/internal/util"
)

// DateRange is stored as given; start <= end is enforced by callers.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

type AnalyticsQuery struct {
	DateRange DateRange            `json:"dateRange"`
	Region    util.Optional[string] `json:"region"`
}

func (q AnalyticsQuery) Equal(other AnalyticsQuery) bool {
	return q.DateRange.Equal(other.DateRange) && util.Equal(q.Region, other.Region)
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Status UserStatus `json:"status"`
	Count  int        `json:"count"`
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

type AnalyticsSnapshot struct {
	TotalUsers        int           `json:"totalUsers"`
	ActiveUsers       int           `json:"activeUsers"`
	DeletedUsers      int           `json:"deletedUsers"`
	RegistrationTrend []TrendPoint  `json:"registrationTrend"`
	UsersByStatus     []StatusCount `json:"usersByStatus"`
	UsersByRegion     []RegionCount `json:"usersByRegion"`
}

// Clone deep-copies the slices so readers never alias store-owned memory.
func (s AnalyticsSnapshot) Clone() AnalyticsSnapshot {
	out := s
	out.RegistrationTrend = cloneOrEmpty(s.RegistrationTrend)
	out.UsersByStatus = cloneOrEmpty(s.UsersByStatus)
	out.UsersByRegion = cloneOrEmpty(s.UsersByRegion)
	return out
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

package backend

import "admindash/internal/model"

// SeedUsers returns a fresh copy of the 15 demo users on every call.
func SeedUsers() []model.User {
	return []model.User{
		{ID: 1, Name: "John Doe", Email: "john@example.com", Status: model.UserStatusActive, Region: "North America", RegistrationDate: "2024-01-15"},
		{ID: 2, Name: "Jane Smith", Email: "jane@example.com", Status: model.UserStatusActive, Region: "Europe", RegistrationDate: "2024-02-01"},
		{ID: 3, Name: "Michael Johnson", Email: "michael@example.com", Status: model.UserStatusInactive, Region: "Asia", RegistrationDate: "2024-01-20"},
		{ID: 4, Name: "Sarah Williams", Email: "sarah@example.com", Status: model.UserStatusActive, Region: "Europe", RegistrationDate: "2024-02-15"},
		{ID: 5, Name: "David Brown", Email: "david@example.com", Status: model.UserStatusInactive, Region: "North America", RegistrationDate: "2024-01-10"},
		{ID: 6, Name: "Emily Davis", Email: "emily@example.com", Status: model.UserStatusActive, Region: "Asia", RegistrationDate: "2024-02-20"},
		{ID: 7, Name: "James Wilson", Email: "james@example.com", Status: model.UserStatusActive, Region: "Europe", RegistrationDate: "2024-01-25"},
		{ID: 8, Name: "Lisa Anderson", Email: "lisa@example.com", Status: model.UserStatusInactive, Region: "North America", RegistrationDate: "2024-02-05"},
		{ID: 9, Name: "Robert Taylor", Email: "robert@example.com", Status: model.UserStatusActive, Region: "Asia", RegistrationDate: "2024-01-30"},
		{ID: 10, Name: "Maria Garcia", Email: "maria@example.com", Status: model.UserStatusActive, Region: "Europe", RegistrationDate: "2024-02-10"},
		{ID: 11, Name: "Thomas Martinez", Email: "thomas@example.com", Status: model.UserStatusInactive, Region: "North America", RegistrationDate: "2024-01-05"},
		{ID: 12, Name: "Jennifer Lee", Email: "jennifer@example.com", Status: model.UserStatusActive, Region: "Asia", RegistrationDate: "2024-02-25"},
		{ID: 13, Name: "William Clark", Email: "william@example.com", Status: model.UserStatusActive, Region: "Europe", RegistrationDate: "2024-01-12"},
		{ID: 14, Name: "Patricia Rodriguez", Email: "patricia@example.com", Status: model.UserStatusInactive, Region: "North America", RegistrationDate: "2024-02-18"},
		{ID: 15, Name: "Kevin Chen", Email: "kevin@example.com", Status: model.UserStatusActive, Region: "Asia", RegistrationDate: "2024-01-28"},
	}
}

// SeedAnalytics is the static aggregate payload; it does not depend on the query.
func SeedAnalytics() model.AnalyticsSnapshot {
	return model.AnalyticsSnapshot{
		TotalUsers:   1000,
		ActiveUsers:  750,
		DeletedUsers: 50,
		RegistrationTrend: []model.TrendPoint{
			{Date: "2024-01", Count: 150},
			{Date: "2024-02", Count: 180},
			{Date: "2024-03", Count: 220},
		},
		UsersByStatus: []model.StatusCount{
			{Status: model.UserStatusActive, Count: 750},
			{Status: model.UserStatusInactive, Count: 250},
		},
		UsersByRegion: []model.RegionCount{
			{Region: "North America", Count: 400},
			{Region: "Europe", Count: 300},
			{Region: "Asia", Count: 200},
			{Region: "Others", Count: 100},
		},
	}
}

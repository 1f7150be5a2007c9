package registry

import "parking-iot-backend/internal/model"

// nycFacilities is the built-in table of 50 facilities across the five boroughs and the airports.
var nycFacilities = []model.Facility{
	// Manhattan
	{ID: 1, Name: "Times Square 44th St", District: model.Manhattan, TotalSpots: 200, RatePerHour: 35, BaseRate: 0.95, PeakHours: []int{10, 11, 12, 17, 18, 19, 20}},
	{ID: 2, Name: "Penn Station 33rd St", District: model.Manhattan, TotalSpots: 300, RatePerHour: 28, BaseRate: 0.9, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 3, Name: "Grand Central 42nd St", District: model.Manhattan, TotalSpots: 250, RatePerHour: 32, BaseRate: 0.92, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 4, Name: "Financial District Wall St", District: model.Manhattan, TotalSpots: 180, RatePerHour: 40, BaseRate: 0.95, PeakHours: []int{7, 8, 9, 17, 18}},
	{ID: 5, Name: "Midtown 5th Ave", District: model.Manhattan, TotalSpots: 150, RatePerHour: 38, BaseRate: 0.88, PeakHours: []int{10, 11, 12, 13, 14, 15}},
	{ID: 6, Name: "Chelsea Market 15th St", District: model.Manhattan, TotalSpots: 120, RatePerHour: 25, BaseRate: 0.75, PeakHours: []int{11, 12, 13, 18, 19, 20}},
	{ID: 7, Name: "Upper East Side 86th St", District: model.Manhattan, TotalSpots: 100, RatePerHour: 30, BaseRate: 0.7, PeakHours: []int{9, 10, 11, 14, 15}},
	{ID: 8, Name: "Upper West Side 72nd St", District: model.Manhattan, TotalSpots: 100, RatePerHour: 28, BaseRate: 0.7, PeakHours: []int{9, 10, 11, 14, 15}},
	{ID: 9, Name: "SoHo Broadway", District: model.Manhattan, TotalSpots: 80, RatePerHour: 35, BaseRate: 0.8, PeakHours: []int{11, 12, 13, 14, 15, 16}},
	{ID: 10, Name: "Tribeca Greenwich St", District: model.Manhattan, TotalSpots: 90, RatePerHour: 32, BaseRate: 0.75, PeakHours: []int{11, 12, 13, 18, 19}},
	{ID: 11, Name: "East Village 2nd Ave", District: model.Manhattan, TotalSpots: 70, RatePerHour: 22, BaseRate: 0.65, PeakHours: []int{18, 19, 20, 21, 22}},
	{ID: 12, Name: "West Village 7th Ave", District: model.Manhattan, TotalSpots: 60, RatePerHour: 25, BaseRate: 0.7, PeakHours: []int{18, 19, 20, 21, 22}},
	{ID: 13, Name: "Harlem 125th St", District: model.Manhattan, TotalSpots: 150, RatePerHour: 15, BaseRate: 0.6, PeakHours: []int{9, 10, 11, 17, 18}},
	{ID: 14, Name: "Lincoln Center 65th St", District: model.Manhattan, TotalSpots: 180, RatePerHour: 30, BaseRate: 0.5, PeakHours: []int{18, 19, 20, 21}},
	{ID: 15, Name: "Columbus Circle", District: model.Manhattan, TotalSpots: 140, RatePerHour: 35, BaseRate: 0.85, PeakHours: []int{10, 11, 12, 17, 18, 19}},
	// Brooklyn
	{ID: 16, Name: "Downtown Brooklyn Borough Hall", District: model.Brooklyn, TotalSpots: 205, RatePerHour: 9, BaseRate: 0.8, PeakHours: []int{8, 9, 10, 17, 18}},
	{ID: 17, Name: "DUMBO Water St", District: model.Brooklyn, TotalSpots: 150, RatePerHour: 18, BaseRate: 0.75, PeakHours: []int{10, 11, 12, 18, 19, 20}},
	{ID: 18, Name: "Williamsburg Bedford Ave", District: model.Brooklyn, TotalSpots: 120, RatePerHour: 15, BaseRate: 0.7, PeakHours: []int{11, 12, 18, 19, 20, 21}},
	{ID: 19, Name: "Bay Ridge 5th Ave", District: model.Brooklyn, TotalSpots: 205, RatePerHour: 4, BaseRate: 0.65, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 20, Name: "Park Slope 7th Ave", District: model.Brooklyn, TotalSpots: 100, RatePerHour: 12, BaseRate: 0.7, PeakHours: []int{9, 10, 11, 17, 18, 19}},
	{ID: 21, Name: "Brooklyn Heights Montague St", District: model.Brooklyn, TotalSpots: 90, RatePerHour: 14, BaseRate: 0.7, PeakHours: []int{8, 9, 17, 18, 19}},
	{ID: 22, Name: "Coney Island Boardwalk", District: model.Brooklyn, TotalSpots: 300, RatePerHour: 8, BaseRate: 0.5, PeakHours: []int{10, 11, 12, 13, 14, 15}},
	{ID: 23, Name: "Bensonhurst 86th St", District: model.Brooklyn, TotalSpots: 120, RatePerHour: 5, BaseRate: 0.6, PeakHours: []int{10, 11, 17, 18}},
	{ID: 24, Name: "Flatbush Junction", District: model.Brooklyn, TotalSpots: 180, RatePerHour: 6, BaseRate: 0.65, PeakHours: []int{9, 10, 11, 17, 18, 19}},
	{ID: 25, Name: "Brighton Beach", District: model.Brooklyn, TotalSpots: 150, RatePerHour: 7, BaseRate: 0.55, PeakHours: []int{10, 11, 12, 13, 14}},
	// Queens
	{ID: 26, Name: "Long Island City Court Square", District: model.Queens, TotalSpots: 476, RatePerHour: 9, BaseRate: 0.8, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 27, Name: "Flushing Main St", District: model.Queens, TotalSpots: 200, RatePerHour: 8, BaseRate: 0.85, PeakHours: []int{10, 11, 12, 13, 17, 18, 19}},
	{ID: 28, Name: "Jamaica Station", District: model.Queens, TotalSpots: 250, RatePerHour: 6, BaseRate: 0.75, PeakHours: []int{6, 7, 8, 17, 18, 19}},
	{ID: 29, Name: "Astoria Steinway St", District: model.Queens, TotalSpots: 46, RatePerHour: 7, BaseRate: 0.7, PeakHours: []int{10, 11, 18, 19, 20}},
	{ID: 30, Name: "Forest Hills 71st Ave", District: model.Queens, TotalSpots: 150, RatePerHour: 8, BaseRate: 0.65, PeakHours: []int{9, 10, 11, 17, 18}},
	{ID: 31, Name: "Bayside Bell Blvd", District: model.Queens, TotalSpots: 120, RatePerHour: 6, BaseRate: 0.6, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 32, Name: "Queens Center Mall", District: model.Queens, TotalSpots: 400, RatePerHour: 5, BaseRate: 0.85, PeakHours: []int{11, 12, 13, 14, 15, 16, 17}},
	{ID: 33, Name: "Rego Park 63rd Dr", District: model.Queens, TotalSpots: 180, RatePerHour: 5, BaseRate: 0.7, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 34, Name: "Jackson Heights 37th Ave", District: model.Queens, TotalSpots: 100, RatePerHour: 6, BaseRate: 0.75, PeakHours: []int{11, 12, 13, 18, 19, 20}},
	{ID: 35, Name: "Queens Family Court", District: model.Queens, TotalSpots: 100, RatePerHour: 5, BaseRate: 0.6, PeakHours: []int{8, 9, 10, 14, 15, 16}},
	// Bronx
	{ID: 36, Name: "Jerome-190th St Garage", District: model.Bronx, TotalSpots: 416, RatePerHour: 7, BaseRate: 0.7, PeakHours: []int{8, 9, 10, 17, 18}},
	{ID: 37, Name: "Yankee Stadium Lot A", District: model.Bronx, TotalSpots: 600, RatePerHour: 25, BaseRate: 0.3, PeakHours: []int{17, 18, 19, 20}},
	{ID: 38, Name: "Fordham Road Plaza", District: model.Bronx, TotalSpots: 150, RatePerHour: 6, BaseRate: 0.75, PeakHours: []int{10, 11, 12, 17, 18, 19}},
	{ID: 39, Name: "Bronx Zoo Southern Blvd", District: model.Bronx, TotalSpots: 300, RatePerHour: 18, BaseRate: 0.5, PeakHours: []int{9, 10, 11, 12, 13, 14}},
	{ID: 40, Name: "Bronxdale Municipal", District: model.Bronx, TotalSpots: 100, RatePerHour: 5, BaseRate: 0.6, PeakHours: []int{8, 9, 17, 18}},
	// Staten Island
	{ID: 41, Name: "St George Ferry Terminal", District: model.StatenIsland, TotalSpots: 200, RatePerHour: 5, BaseRate: 0.75, PeakHours: []int{6, 7, 8, 17, 18, 19}},
	{ID: 42, Name: "Staten Island Mall", District: model.StatenIsland, TotalSpots: 400, RatePerHour: 1, BaseRate: 0.8, PeakHours: []int{11, 12, 13, 14, 15, 16, 17}},
	{ID: 43, Name: "Staten Island Courthouse", District: model.StatenIsland, TotalSpots: 150, RatePerHour: 5, BaseRate: 0.6, PeakHours: []int{8, 9, 10, 14, 15}},
	{ID: 44, Name: "Great Kills Municipal", District: model.StatenIsland, TotalSpots: 100, RatePerHour: 3, BaseRate: 0.5, PeakHours: []int{10, 11, 12, 13, 14}},
	{ID: 45, Name: "New Dorp Municipal", District: model.StatenIsland, TotalSpots: 80, RatePerHour: 3, BaseRate: 0.5, PeakHours: []int{10, 11, 12, 17, 18}},
	// Airports
	{ID: 46, Name: "JFK Terminal 1 Garage", District: model.Airport, TotalSpots: 500, RatePerHour: 18, BaseRate: 0.8, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
	{ID: 47, Name: "JFK Long-Term Lot", District: model.Airport, TotalSpots: 1000, RatePerHour: 8, BaseRate: 0.6, PeakHours: []int{5, 6, 7, 8}},
	{ID: 48, Name: "LaGuardia Terminal B", District: model.Airport, TotalSpots: 400, RatePerHour: 18, BaseRate: 0.8, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
	{ID: 49, Name: "LaGuardia Economy Lot", District: model.Airport, TotalSpots: 600, RatePerHour: 6, BaseRate: 0.55, PeakHours: []int{5, 6, 7}},
	{ID: 50, Name: "Newark EWR Daily Lot", District: model.Airport, TotalSpots: 800, RatePerHour: 12, BaseRate: 0.7, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
}

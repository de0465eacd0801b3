package models

type Coordinate struct {
	Lat float64
	Lon float64
}

// Facility is one row of the facility catalog.
type Facility struct {
	Name     string
	Loc      Coordinate
	Category string
	Priority int
	// Row is the 1-based spreadsheet row the facility was read from.
	Row int
}

// Route is a precomputed travel path. Points are (lat, lon) in travel order;
// GeoJSON keeps the source FeatureCollection for map overlays.
type Route struct {
	Name    string
	Points  []Coordinate
	GeoJSON []byte
}

// Selection is the complete filter state of one interaction.
type Selection struct {
	Types         []string
	Priorities    []int
	Overlays      []string
	Route         string
	MaxDistanceKm float64
}

type NearbyFacility struct {
	Facility
	DistanceKm float64
}

package render

import (
	"encoding/json"
	"fmt"
	"route-sites/internal/models"
)

const (
	RouteColor  = "blue"
	RouteWeight = 2.5
	DefaultGray = "gray"
	UnknownType = "?"
)

var PriorityColors = map[int]string{
	1: "red",
	2: "orange",
	3: "green",
}

var TypeLabels = map[string]string{
	"Camping":          "C",
	"Village vacances": "V",
	"Hôtel 2 étoiles":  "H**",
	"Hôtel 1 étoile":   "H*",
	"Hôtel":            "H",
}

type Marker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
	Popup   string  `json:"popup"`
	Tooltip string  `json:"tooltip"`
}

type Overlay struct {
	Name    string          `json:"name"`
	Color   string          `json:"color"`
	Weight  float64         `json:"weight"`
	GeoJSON json.RawMessage `json:"geojson"`
}

// Map is everything the browser needs to draw one Leaflet map.
type Map struct {
	CenterLat float64   `json:"center_lat"`
	CenterLon float64   `json:"center_lon"`
	Zoom      int       `json:"zoom"`
	Markers   []Marker  `json:"markers"`
	Routes    []Overlay `json:"routes"`
}

func PriorityColor(priority int) string {
	if c, ok := PriorityColors[priority]; ok {
		return c
	}
	return DefaultGray
}

func TypeLabel(category string) string {
	if l, ok := TypeLabels[category]; ok {
		return l
	}
	return UnknownType
}

func Popup(f models.Facility) string {
	return fmt.Sprintf("%s - %s (Priorité: %d)", f.Name, f.Category, f.Priority)
}

func MarkerFor(f models.Facility) Marker {
	return Marker{
		Lat:     f.Loc.Lat,
		Lon:     f.Loc.Lon,
		Color:   PriorityColor(f.Priority),
		Label:   TypeLabel(f.Category),
		Popup:   Popup(f),
		Tooltip: f.Name,
	}
}

func Markers(facilities []models.Facility) []Marker {
	out := make([]Marker, len(facilities))
	for i, f := range facilities {
		out[i] = MarkerFor(f)
	}
	return out
}

func Overlays(rs ...models.Route) []Overlay {
	out := make([]Overlay, 0, len(rs))
	for _, r := range rs {
		out = append(out, Overlay{
			Name:    r.Name,
			Color:   RouteColor,
			Weight:  RouteWeight,
			GeoJSON: json.RawMessage(r.GeoJSON),
		})
	}
	return out
}

func NewMap(centerLat, centerLon float64, zoom int, facilities []models.Facility, rs []models.Route) Map {
	return Map{
		CenterLat: centerLat,
		CenterLon: centerLon,
		Zoom:      zoom,
		Markers:   Markers(facilities),
		Routes:    Overlays(rs...),
	}
}

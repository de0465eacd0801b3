package render

import (
	"encoding/json"
	"route-sites/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerFor(t *testing.T) {
	tests := []struct {
		category string
		priority int
		color    string
		label    string
	}{
		{"Camping", 1, "red", "C"},
		{"Village vacances", 2, "orange", "V"},
		{"Hôtel 2 étoiles", 3, "green", "H**"},
		{"Hôtel 1 étoile", 4, "gray", "H*"},
		{"Hôtel", 0, "gray", "H"},
		{"Gîte", 1, "red", "?"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			f := models.Facility{Name: "Site", Loc: models.Coordinate{Lat: 45.1, Lon: 5.2}, Category: tt.category, Priority: tt.priority}
			m := MarkerFor(f)
			assert.Equal(t, tt.color, m.Color)
			assert.Equal(t, tt.label, m.Label)
			assert.Equal(t, 45.1, m.Lat)
			assert.Equal(t, 5.2, m.Lon)
			assert.Equal(t, "Site", m.Tooltip)
		})
	}
}

func TestPopup(t *testing.T) {
	f := models.Facility{Name: "Camping du Lac", Category: "Camping", Priority: 2}
	assert.Equal(t, "Camping du Lac - Camping (Priorité: 2)", Popup(f))
}

func TestNewMap(t *testing.T) {
	route := models.Route{Name: "A", GeoJSON: []byte(`{"type":"FeatureCollection","features":[]}`)}
	m := NewMap(45.5, 5.5, 8, []models.Facility{{Name: "x", Priority: 1}}, []models.Route{route})

	assert.Len(t, m.Markers, 1)
	require.Len(t, m.Routes, 1)
	assert.Equal(t, "blue", m.Routes[0].Color)
	assert.Equal(t, 2.5, m.Routes[0].Weight)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"geojson":{"type":"FeatureCollection","features":[]}`)
}

func TestNewMapEmpty(t *testing.T) {
	m := NewMap(45.5, 5.5, 8, nil, nil)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"markers":[]`)
	assert.Contains(t, string(data), `"routes":[]`)
}

package planner

import (
	"errors"
	"route-sites/internal/calculator"
	"route-sites/internal/models"
	"route-sites/internal/routes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []models.Facility{
	{Name: "Camping du Lac", Loc: models.Coordinate{Lat: 45.0, Lon: 5.05}, Category: "Camping", Priority: 1},
	{Name: "Hôtel Central", Loc: models.Coordinate{Lat: 46.0, Lon: 5.05}, Category: "Hôtel", Priority: 2},
	{Name: "Village Soleil", Loc: models.Coordinate{Lat: 45.05, Lon: 5.02}, Category: "Village vacances", Priority: 3},
	{Name: "Camping Bleu", Loc: models.Coordinate{Lat: 45.02, Lon: 5.09}, Category: "Camping", Priority: 2},
}

func testRoutes() *routes.Catalog {
	return routes.NewCatalog(
		models.Route{Name: "A", Points: []models.Coordinate{{Lat: 45.0, Lon: 5.0}, {Lat: 45.0, Lon: 5.1}}},
		models.Route{Name: "B", Points: []models.Coordinate{{Lat: 46.0, Lon: 5.0}, {Lat: 46.0, Lon: 5.1}}},
		models.Route{Name: "broken", Points: []models.Coordinate{{Lat: 45.0, Lon: 5.0}}},
	)
}

func names(fs []models.Facility) []string {
	out := []string{}
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func TestFacets(t *testing.T) {
	types, priorities := Facets(catalog)
	assert.Equal(t, []string{"Camping", "Hôtel", "Village vacances"}, types)
	assert.Equal(t, []int{1, 2, 3}, priorities)
}

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection(catalog, testRoutes(), 20)
	assert.Equal(t, []string{"A", "B", "broken"}, sel.Overlays)
	assert.Equal(t, "A", sel.Route)
	assert.Equal(t, 20.0, sel.MaxDistanceKm)
	assert.Len(t, sel.Types, 3)

	empty := DefaultSelection(nil, routes.NewCatalog(), 20)
	assert.Equal(t, "", empty.Route)
}

func TestPlan(t *testing.T) {
	sel := models.Selection{
		Types:         []string{"Camping"},
		Priorities:    []int{1, 2},
		Overlays:      []string{"B", "missing"},
		Route:         "A",
		MaxDistanceKm: 10,
	}
	v := Plan(catalog, testRoutes(), sel)

	require.NoError(t, v.Err)
	assert.Equal(t, []string{"Camping du Lac", "Camping Bleu"}, names(v.Filtered))
	require.Len(t, v.Overlays, 1)
	assert.Equal(t, "B", v.Overlays[0].Name)
	require.NotNil(t, v.Selected)
	assert.Equal(t, "A", v.Selected.Name)

	// Nearby ignores the type and priority filter.
	assert.Equal(t, []string{"Camping du Lac", "Village Soleil", "Camping Bleu"}, names(v.NearbyFacilities()))
	assert.True(t, v.CanExport())
	assert.Empty(t, v.Notices)

	want, err := calculator.FindNearby(v.Selected.Points, catalog, 10)
	require.NoError(t, err)
	assert.Equal(t, want, v.NearbyFacilities())
}

func TestPlanNoRoute(t *testing.T) {
	v := Plan(catalog, testRoutes(), models.Selection{Types: []string{"Camping"}, Priorities: []int{1}, MaxDistanceKm: 20})
	require.NoError(t, v.Err)
	assert.Nil(t, v.Selected)
	assert.NotNil(t, v.Nearby)
	assert.Empty(t, v.Nearby)
	assert.False(t, v.CanExport())
	assert.Contains(t, v.Notices, NoticeNoRoute)
}

func TestPlanEmptyFilter(t *testing.T) {
	v := Plan(catalog, testRoutes(), models.Selection{Priorities: []int{1}, Route: "A", MaxDistanceKm: 20})
	require.NoError(t, v.Err)
	assert.Empty(t, v.Filtered)
	assert.Contains(t, v.Notices, NoticeEmptyFilter)
	assert.NotEmpty(t, v.Nearby)
}

func TestPlanNothingNearby(t *testing.T) {
	v := Plan(catalog[:1], testRoutes(), models.Selection{Route: "B", MaxDistanceKm: 20})
	require.NoError(t, v.Err)
	assert.Empty(t, v.Nearby)
	assert.Contains(t, v.Notices, NoticeNoNearby)
}

func TestPlanErrors(t *testing.T) {
	v := Plan(catalog, testRoutes(), models.Selection{Route: "broken", MaxDistanceKm: 20})
	assert.True(t, errors.Is(v.Err, calculator.ErrInvalidRoute))
	assert.Empty(t, v.Nearby)

	v = Plan(catalog, testRoutes(), models.Selection{Route: "nowhere", MaxDistanceKm: 20})
	assert.True(t, errors.Is(v.Err, ErrUnknownRoute))
	assert.Nil(t, v.Selected)
}

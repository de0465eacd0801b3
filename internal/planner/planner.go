// Package planner turns one Selection into everything a page needs: the
// filtered catalog, the overlaid routes and the facilities near the chosen
// route. Plan holds no state between calls.
package planner

import (
	"errors"
	"fmt"
	"route-sites/internal/calculator"
	"route-sites/internal/models"
	"route-sites/internal/routes"
)

var ErrUnknownRoute = errors.New("unknown route")

const (
	NoticeEmptyFilter = "Aucun type d'hébergement ou niveau de priorité sélectionné."
	NoticeNoRoute     = "Veuillez sélectionner un trajet pour afficher les sites proches."
	NoticeNoNearby    = "Aucun site proche sélectionné. Ajustez les filtres pour voir les résultats."
)

type View struct {
	Selection models.Selection
	// Filtered is the catalog restricted to the selected types and priorities.
	Filtered []models.Facility
	Overlays []models.Route
	Selected *models.Route
	// Nearby is computed over the whole catalog. Never nil.
	Nearby  []models.NearbyFacility
	Notices []string
	Err     error
}

func (v View) CanExport() bool {
	return len(v.Nearby) > 0
}

func (v View) NearbyFacilities() []models.Facility {
	out := make([]models.Facility, len(v.Nearby))
	for i, n := range v.Nearby {
		out[i] = n.Facility
	}
	return out
}

// Facets lists the distinct types and priorities of the catalog in order of
// first appearance.
func Facets(catalog []models.Facility) ([]string, []int) {
	var types []string
	var priorities []int
	seenType := make(map[string]bool)
	seenPriority := make(map[int]bool)
	for _, f := range catalog {
		if !seenType[f.Category] {
			seenType[f.Category] = true
			types = append(types, f.Category)
		}
		if !seenPriority[f.Priority] {
			seenPriority[f.Priority] = true
			priorities = append(priorities, f.Priority)
		}
	}
	return types, priorities
}

// DefaultSelection selects every type, priority and route overlay, and the
// first route as the filtering route.
func DefaultSelection(catalog []models.Facility, rc *routes.Catalog, distanceKm float64) models.Selection {
	types, priorities := Facets(catalog)
	sel := models.Selection{
		Types:         types,
		Priorities:    priorities,
		Overlays:      rc.Names(),
		MaxDistanceKm: distanceKm,
	}
	if rc.Len() > 0 {
		sel.Route = rc.Routes()[0].Name
	}
	return sel
}

func Plan(catalog []models.Facility, rc *routes.Catalog, sel models.Selection) View {
	v := View{
		Selection: sel,
		Filtered:  []models.Facility{},
		Nearby:    []models.NearbyFacility{},
	}

	if len(sel.Types) == 0 || len(sel.Priorities) == 0 {
		v.Notices = append(v.Notices, NoticeEmptyFilter)
	} else {
		types := make(map[string]bool, len(sel.Types))
		for _, t := range sel.Types {
			types[t] = true
		}
		priorities := make(map[int]bool, len(sel.Priorities))
		for _, p := range sel.Priorities {
			priorities[p] = true
		}
		for _, f := range catalog {
			if types[f.Category] && priorities[f.Priority] {
				v.Filtered = append(v.Filtered, f)
			}
		}
	}

	overlay := make(map[string]bool, len(sel.Overlays))
	for _, name := range sel.Overlays {
		overlay[name] = true
	}
	for _, r := range rc.Routes() {
		if overlay[r.Name] {
			v.Overlays = append(v.Overlays, r)
		}
	}

	if sel.Route == "" {
		v.Notices = append(v.Notices, NoticeNoRoute)
		return v
	}
	r, ok := rc.Get(sel.Route)
	if !ok {
		v.Err = fmt.Errorf("%w: %q", ErrUnknownRoute, sel.Route)
		return v
	}
	v.Selected = &r

	nearby, err := calculator.FindNearbyWithDistance(r.Points, catalog, sel.MaxDistanceKm)
	if err != nil {
		v.Err = fmt.Errorf("route %q: %w", r.Name, err)
		return v
	}
	v.Nearby = nearby
	if len(nearby) == 0 {
		v.Notices = append(v.Notices, NoticeNoNearby)
	}
	return v
}

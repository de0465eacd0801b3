// Package routes loads the precomputed route file: a JSON object mapping each
// route name to a GeoJSON FeatureCollection whose first feature is the path.
package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"route-sites/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrRoutesNotFound = errors.New("route file not found")

// Catalog holds the routes in file order.
type Catalog struct {
	routes []models.Route
	byName map[string]int
}

func (c *Catalog) Routes() []models.Route {
	return c.routes
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.routes))
	for i, r := range c.routes {
		names[i] = r.Name
	}
	return names
}

func (c *Catalog) Get(name string) (models.Route, bool) {
	i, ok := c.byName[name]
	if !ok {
		return models.Route{}, false
	}
	return c.routes[i], true
}

func (c *Catalog) Len() int {
	return len(c.routes)
}

// NewCatalog builds a catalog from already parsed routes. A later route with
// the same name replaces the earlier one in place.
func NewCatalog(rs ...models.Route) *Catalog {
	c := &Catalog{byName: make(map[string]int)}
	for _, r := range rs {
		if i, ok := c.byName[r.Name]; ok {
			c.routes[i] = r
			continue
		}
		c.byName[r.Name] = len(c.routes)
		c.routes = append(c.routes, r)
	}
	return c
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRoutesNotFound, path)
		}
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads the route object, keeping the order routes appear in.
func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parse routes: expected an object of routes")
	}

	var rs []models.Route
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse routes: %w", err)
		}
		name := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("route %q: %w", name, err)
		}
		r, err := parseRoute(name, raw)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse routes: trailing data after route object")
	}
	return NewCatalog(rs...), nil
}

func parseRoute(name string, raw []byte) (models.Route, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return models.Route{}, fmt.Errorf("route %q: %w", name, err)
	}
	if len(fc.Features) == 0 || fc.Features[0].Geometry == nil {
		return models.Route{}, fmt.Errorf("route %q: no feature geometry", name)
	}

	var line orb.LineString
	switch g := fc.Features[0].Geometry.(type) {
	case orb.LineString:
		line = g
	case orb.MultiLineString:
		// Joining parts would invent a segment across the gap.
		if len(g) != 1 {
			return models.Route{}, fmt.Errorf("route %q: multi-part geometry with %d parts", name, len(g))
		}
		line = g[0]
	default:
		return models.Route{}, fmt.Errorf("route %q: unsupported geometry %s", name, g.GeoJSONType())
	}

	points := make([]models.Coordinate, len(line))
	for i, p := range line {
		// GeoJSON positions are [lon, lat]
		points[i] = models.Coordinate{Lat: p.Lat(), Lon: p.Lon()}
	}
	return models.Route{Name: name, Points: points, GeoJSON: raw}, nil
}

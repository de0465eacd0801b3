package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"route-sites/internal/calculator"
	"route-sites/internal/config"
	"route-sites/internal/export"
	"route-sites/internal/models"
	"route-sites/internal/planner"
	"route-sites/internal/render"
	"route-sites/internal/routes"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var errDistanceRange = errors.New("distance out of range")

// Server serves the planning page and exports. The catalogs are read-only
// after construction, so handlers share them without locking.
type Server struct {
	cfg        *config.Config
	log        *zap.Logger
	catalog    []models.Facility
	routes     *routes.Catalog
	types      []string
	priorities []int
}

func NewServer(cfg *config.Config, log *zap.Logger, catalog []models.Facility, rc *routes.Catalog) *Server {
	types, priorities := planner.Facets(catalog)
	return &Server{
		cfg:        cfg,
		log:        log,
		catalog:    catalog,
		routes:     rc,
		types:      types,
		priorities: priorities,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(s.log))

	tmpl := template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/export.kml", s.exportKML)
	r.GET("/export.xlsx", s.exportXLSX)
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/routes", s.listRoutes)
		api.GET("/nearby", s.nearby)
	}
	return r
}

// selectionQuery is the page form. F marks a submitted form: without it the
// default selection applies and only the given parameters override it.
type selectionQuery struct {
	F          bool     `form:"f"`
	Types      []string `form:"type"`
	Priorities []int    `form:"priority"`
	Overlays   []string `form:"overlay"`
	Route      string   `form:"route"`
}

func (s *Server) selection(c *gin.Context) (models.Selection, error) {
	var q selectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return models.Selection{}, err
	}

	sel := planner.DefaultSelection(s.catalog, s.routes, s.cfg.Distance.Default)
	if q.F {
		sel.Types = q.Types
		sel.Priorities = q.Priorities
		sel.Overlays = q.Overlays
		sel.Route = q.Route
	} else {
		if len(q.Types) > 0 {
			sel.Types = q.Types
		}
		if len(q.Priorities) > 0 {
			sel.Priorities = q.Priorities
		}
		if len(q.Overlays) > 0 {
			sel.Overlays = q.Overlays
		}
		if q.Route != "" {
			sel.Route = q.Route
		}
	}

	if raw, ok := c.GetQuery("distance"); ok {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Selection{}, fmt.Errorf("%w: %q", errDistanceRange, raw)
		}
		// written so that NaN fails too
		if !(d >= s.cfg.Distance.Min && d <= s.cfg.Distance.Max) {
			return models.Selection{}, fmt.Errorf("%w: %g not in [%g, %g]",
				errDistanceRange, d, s.cfg.Distance.Min, s.cfg.Distance.Max)
		}
		sel.MaxDistanceKm = d
	}
	return sel, nil
}

func selectionValues(sel models.Selection) url.Values {
	v := url.Values{}
	v.Set("f", "1")
	for _, t := range sel.Types {
		v.Add("type", t)
	}
	for _, p := range sel.Priorities {
		v.Add("priority", strconv.Itoa(p))
	}
	for _, o := range sel.Overlays {
		v.Add("overlay", o)
	}
	v.Set("route", sel.Route)
	v.Set("distance", strconv.FormatFloat(sel.MaxDistanceKm, 'f', -1, 64))
	return v
}

func (s *Server) plan(c *gin.Context) (planner.View, bool) {
	sel, err := s.selection(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return planner.View{}, false
	}
	return planner.Plan(s.catalog, s.routes, sel), true
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Types      []option
	Priorities []option
	Overlays   []option
	Routes     []option

	Distance    float64
	DistanceMin float64
	DistanceMax float64

	Overview    render.Map
	Nearby      render.Map
	HasSelected bool
	NearbyCount int

	CanExport bool
	KMLURL    template.URL
	XLSXURL   template.URL

	Notices []string
	Error   string
}

func stringOptions(all, selected []string) []option {
	in := make(map[string]bool, len(selected))
	for _, s := range selected {
		in[s] = true
	}
	out := make([]option, len(all))
	for i, a := range all {
		out[i] = option{Value: a, Label: a, Selected: in[a]}
	}
	return out
}

func (s *Server) index(c *gin.Context) {
	sel, err := s.selection(c)
	if err != nil {
		_ = c.Error(err)
		sel = planner.DefaultSelection(s.catalog, s.routes, s.cfg.Distance.Default)
	}
	v := planner.Plan(s.catalog, s.routes, sel)

	priorities := make([]string, len(s.priorities))
	for i, p := range s.priorities {
		priorities[i] = strconv.Itoa(p)
	}
	selectedPriorities := make([]string, len(sel.Priorities))
	for i, p := range sel.Priorities {
		selectedPriorities[i] = strconv.Itoa(p)
	}

	m := s.cfg.Map
	data := pageData{
		Types:       stringOptions(s.types, sel.Types),
		Priorities:  stringOptions(priorities, selectedPriorities),
		Overlays:    stringOptions(s.routes.Names(), sel.Overlays),
		Routes:      stringOptions(s.routes.Names(), []string{sel.Route}),
		Distance:    sel.MaxDistanceKm,
		DistanceMin: s.cfg.Distance.Min,
		DistanceMax: s.cfg.Distance.Max,
		Overview:    render.NewMap(m.CenterLat, m.CenterLon, m.Zoom, v.Filtered, v.Overlays),
		NearbyCount: len(v.Nearby),
		CanExport:   v.CanExport(),
		Notices:     v.Notices,
	}
	if v.Selected != nil {
		data.HasSelected = true
		data.Nearby = render.NewMap(m.CenterLat, m.CenterLon, m.Zoom, v.NearbyFacilities(), []models.Route{*v.Selected})
	}
	if v.CanExport() {
		q := selectionValues(sel).Encode()
		data.KMLURL = template.URL("/export.kml?" + q)
		data.XLSXURL = template.URL("/export.xlsx?" + q)
	}

	status := http.StatusOK
	switch {
	case err != nil:
		status = http.StatusBadRequest
		data.Error = err.Error()
	case v.Err != nil:
		status = http.StatusUnprocessableEntity
		data.Error = v.Err.Error()
	}
	c.HTML(status, "index.html", data)
}

func (s *Server) exportable(c *gin.Context) (planner.View, bool) {
	v, ok := s.plan(c)
	if !ok {
		return v, false
	}
	if v.Err != nil {
		_ = c.Error(v.Err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": v.Err.Error()})
		return v, false
	}
	if !v.CanExport() {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": export.ErrNothingToExport.Error()})
		return v, false
	}
	return v, true
}

func (s *Server) sendFile(c *gin.Context, contentType, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) exportKML(c *gin.Context) {
	v, ok := s.exportable(c)
	if !ok {
		return
	}
	s.log.Info("export kml",
		zap.String("route", v.Selected.Name),
		zap.Float64("distance_km", v.Selection.MaxDistanceKm),
		zap.Int("facilities", len(v.Nearby)))
	s.sendFile(c, export.KMLContentType, export.KMLFilename, func(buf *bytes.Buffer) error {
		return export.WriteKML(buf, v.NearbyFacilities())
	})
}

func (s *Server) exportXLSX(c *gin.Context) {
	v, ok := s.exportable(c)
	if !ok {
		return
	}
	s.log.Info("export xlsx",
		zap.String("route", v.Selected.Name),
		zap.Float64("distance_km", v.Selection.MaxDistanceKm),
		zap.Int("facilities", len(v.Nearby)))
	s.sendFile(c, export.XLSXContentType, export.XLSXFilename, func(buf *bytes.Buffer) error {
		return export.WriteXLSX(buf, v.Nearby)
	})
}

type routeSummary struct {
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	LengthKm float64 `json:"length_km"`
}

func (s *Server) listRoutes(c *gin.Context) {
	out := make([]routeSummary, 0, s.routes.Len())
	for _, r := range s.routes.Routes() {
		out = append(out, routeSummary{
			Name:     r.Name,
			Points:   len(r.Points),
			LengthKm: calculator.RouteLengthKm(r.Points),
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

type nearbyFacility struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Priority   int     `json:"priority"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

func (s *Server) nearby(c *gin.Context) {
	v, ok := s.plan(c)
	if !ok {
		return
	}
	if v.Err != nil {
		_ = c.Error(v.Err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": v.Err.Error()})
		return
	}

	out := make([]nearbyFacility, len(v.Nearby))
	for i, n := range v.Nearby {
		out[i] = nearbyFacility{
			Name:       n.Name,
			Category:   n.Category,
			Priority:   n.Priority,
			Lat:        n.Loc.Lat,
			Lon:        n.Loc.Lon,
			DistanceKm: n.DistanceKm,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"route":       v.Selection.Route,
		"distance_km": v.Selection.MaxDistanceKm,
		"count":       len(out),
		"data":        out,
		"notices":     v.Notices,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"facilities": len(s.catalog),
		"routes":     s.routes.Len(),
	})
}

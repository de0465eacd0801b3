package export

import (
	"errors"
	"fmt"
	"io"
	"route-sites/internal/models"

	"github.com/twpayne/go-kml/v3"
)

const (
	KMLContentType  = "application/vnd.google-earth.kml+xml"
	KMLFilename     = "sites_proches.kml"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	XLSXFilename    = "sites_proches.xlsx"
	DocumentName    = "sites_proches"
)

var ErrNothingToExport = errors.New("no facilities to export")

// Description is the placemark text shown in map viewers.
func Description(f models.Facility) string {
	return fmt.Sprintf("%s - Priorité %d", f.Category, f.Priority)
}

// WriteKML writes one point placemark per facility.
func WriteKML(w io.Writer, facilities []models.Facility) error {
	if len(facilities) == 0 {
		return ErrNothingToExport
	}

	placemarks := make([]kml.Element, 0, len(facilities)+1)
	placemarks = append(placemarks, kml.Name(DocumentName))
	for _, f := range facilities {
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(f.Name),
			kml.Description(Description(f)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: f.Loc.Lon, Lat: f.Loc.Lat}),
			),
		))
	}

	return kml.KML(kml.Document(placemarks...)).WriteIndent(w, "", "  ")
}

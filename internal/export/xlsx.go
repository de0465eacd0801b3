package export

import (
	"io"
	"route-sites/internal/excel"
	"route-sites/internal/models"
)

const XLSXSheet = "Sites"

// WriteXLSX writes the nearby facilities with their distance to the route.
func WriteXLSX(w io.Writer, nearby []models.NearbyFacility) error {
	if len(nearby) == 0 {
		return ErrNothingToExport
	}
	return excel.WriteFacilities(w, nearby, XLSXSheet)
}

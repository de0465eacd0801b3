package excel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"route-sites/internal/models"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers of the facility workbook.
const (
	ColName      = "Nom"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
	ColType      = "Type"
	ColPriority  = "Priorité"
)

var RequiredColumns = []string{ColLatitude, ColLongitude, ColType, ColPriority}

var (
	ErrCatalogNotFound = errors.New("facility file not found")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrMalformedRow    = errors.New("malformed row")
)

func parseCoord(val string) (float64, error) {
	// Accept a comma decimal separator
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", val)
	}
	return f, nil
}

func parsePriority(val string) (int, error) {
	f, err := parseCoord(val)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", val)
	}
	return int(f), nil
}

func OpenFile(filename string) (*excelize.File, error) {
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, filename)
		}
		return nil, err
	}
	return excelize.OpenFile(filename)
}

// LoadFacilities reads the whole facility catalog from a workbook. An empty
// sheet name selects the first sheet. Any bad row fails the whole load.
func LoadFacilities(filename, sheetName string) ([]models.Facility, error) {
	f, err := OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", filename)
		}
		sheetName = sheets[0]
	}
	return ReadFacilities(f, sheetName)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func ReadFacilities(f *excelize.File, sheetName string) ([]models.Facility, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}

	// Header is row 0
	cols := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	nameIdx, ok := cols[ColName]
	if !ok {
		nameIdx = -1
	}

	facilities := make([]models.Facility, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		lat, err := parseCoord(cell(row, cols[ColLatitude]))
		if err != nil {
			return nil, fmt.Errorf("%w %d: %s: %v", ErrMalformedRow, rowNum, ColLatitude, err)
		}
		if lat < -90 || lat > 90 {
			return nil, fmt.Errorf("%w %d: %s: %g out of range", ErrMalformedRow, rowNum, ColLatitude, lat)
		}
		lon, err := parseCoord(cell(row, cols[ColLongitude]))
		if err != nil {
			return nil, fmt.Errorf("%w %d: %s: %v", ErrMalformedRow, rowNum, ColLongitude, err)
		}
		if lon < -180 || lon > 180 {
			return nil, fmt.Errorf("%w %d: %s: %g out of range", ErrMalformedRow, rowNum, ColLongitude, lon)
		}
		category := cell(row, cols[ColType])
		if category == "" {
			return nil, fmt.Errorf("%w %d: %s: empty", ErrMalformedRow, rowNum, ColType)
		}
		priority, err := parsePriority(cell(row, cols[ColPriority]))
		if err != nil {
			return nil, fmt.Errorf("%w %d: %s: %v", ErrMalformedRow, rowNum, ColPriority, err)
		}

		facilities = append(facilities, models.Facility{
			Name:     cell(row, nameIdx),
			Loc:      models.Coordinate{Lat: lat, Lon: lon},
			Category: category,
			Priority: priority,
			Row:      rowNum,
		})
	}
	return facilities, nil
}

// WriteFacilities writes the facilities and their route distance as a
// single-sheet workbook.
func WriteFacilities(w io.Writer, data []models.NearbyFacility, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	headers := []interface{}{
		ColName, ColType, ColPriority, ColLatitude, ColLongitude, "Distance (km)",
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, r := range data {
		cellName, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			r.Name, r.Category, r.Priority, r.Loc.Lat, r.Loc.Lon,
			math.Round(r.DistanceKm*100) / 100,
		}
		if err := sw.SetRow(cellName, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	return f.Write(w)
}

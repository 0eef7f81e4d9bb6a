// Package gota loads the station and observation tables into gota dataframes,
// joins them on the composite station key, and decodes the joined rows into
// domain records.
package gota

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/station-idw/internal/domain"
)

// Canonical column names.
const (
	ColStationID   = "station_id"
	ColWBANID      = "wban_id"
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColMonth       = "month"
	ColDay         = "day"
	ColTemperature = "temperature"
)

var (
	joinKeys           = []string{ColStationID, ColWBANID}
	stationColumns     = []string{ColStationID, ColWBANID, ColLatitude, ColLongitude}
	observationColumns = []string{ColStationID, ColWBANID, ColMonth, ColDay, ColTemperature}
)

// LoadStations reads the station table. The first row is a header; column names
// match case- and underscore-insensitively, so "StationID" and "station_id" are
// the same column. Columns other than the key and coordinates are dropped.
func LoadStations(r io.Reader) (dataframe.DataFrame, error) {
	df := readStrings(r, dataframe.HasHeader(true))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read stations: %w", df.Err)
	}

	df, err := canonicalize(df, stationColumns)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read stations: %w", err)
	}
	if err := checkFloats(df, 2, ColLatitude, ColLongitude); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read stations: %w", err)
	}
	return df, nil
}

// LoadObservations reads the observation table, which has no header row.
// Columns are named positionally: station_id, wban_id, month, day, temperature.
func LoadObservations(r io.Reader) (dataframe.DataFrame, error) {
	df := readStrings(r, dataframe.HasHeader(false), dataframe.Names(observationColumns...))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read observations: expected %d columns: %w", len(observationColumns), df.Err)
	}
	if err := checkInts(df, 1, ColMonth, ColDay); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read observations: %w", err)
	}
	if err := checkFloats(df, 1, ColTemperature); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read observations: %w", err)
	}
	return df, nil
}

// FilterDate keeps the observation rows dated month/day that carry a
// temperature. Dropped rows are counted as date mismatches or missing
// temperatures. Call it before Join so only target-date rows are joined.
func FilterDate(observations dataframe.DataFrame, month, day int) (dataframe.DataFrame, domain.LoadReport, error) {
	var report domain.LoadReport
	total := observations.Nrow()
	if total == 0 {
		return observations, report, nil
	}

	dated := observations.Filter(dataframe.F{Colname: ColMonth, Comparator: series.CompFunc, Comparando: intEquals(month)})
	if dated.Err == nil && dated.Nrow() > 0 {
		dated = dated.Filter(dataframe.F{Colname: ColDay, Comparator: series.CompFunc, Comparando: intEquals(day)})
	}
	if dated.Err != nil {
		return dataframe.DataFrame{}, report, fmt.Errorf("filter observations by date: %w", dated.Err)
	}
	report.DateMismatch = total - dated.Nrow()
	if dated.Nrow() == 0 {
		return dated, report, nil
	}

	measured := dated.Filter(dataframe.F{Colname: ColTemperature, Comparator: series.CompFunc, Comparando: hasValue})
	if measured.Err != nil {
		return dataframe.DataFrame{}, report, fmt.Errorf("filter observations by temperature: %w", measured.Err)
	}
	report.MissingTemperature = dated.Nrow() - measured.Nrow()
	return measured, report, nil
}

func intEquals(want int) func(series.Element) bool {
	return func(el series.Element) bool {
		v, ok, err := parseInt(el.String())
		return err == nil && ok && v == want
	}
}

func hasValue(el series.Element) bool {
	_, ok, err := parseFloat(el.String())
	return err == nil && ok
}

// Join inner-joins observations to stations on (station_id, wban_id).
func Join(stations, observations dataframe.DataFrame) (dataframe.DataFrame, error) {
	joined := observations.InnerJoin(stations, joinKeys...)
	if joined.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("join on %s: %w", strings.Join(joinKeys, ","), joined.Err)
	}
	return joined, nil
}

// Decode converts joined rows into records for the given month and day. Rows
// with a missing coordinate or temperature, a different date, or coordinates
// out of range are excluded and counted in the report.
func Decode(joined dataframe.DataFrame, month, day int) ([]domain.JoinedRecord, domain.LoadReport, error) {
	report := domain.LoadReport{Joined: joined.Nrow()}
	if joined.Nrow() == 0 {
		return nil, report, nil
	}

	cols := make(map[string][]string, len(stationColumns)+len(observationColumns))
	for _, name := range append(append([]string(nil), stationColumns...), observationColumns[2:]...) {
		s := joined.Col(name)
		if s.Err != nil {
			return nil, report, fmt.Errorf("decode joined table: %w", s.Err)
		}
		cols[name] = s.Records()
	}

	records := make([]domain.JoinedRecord, 0, joined.Nrow())
	for i := 0; i < joined.Nrow(); i++ {
		m, okM, err := parseInt(cols[ColMonth][i])
		if err != nil {
			return nil, report, fmt.Errorf("decode row %d: month: %w", i, err)
		}
		d, okD, err := parseInt(cols[ColDay][i])
		if err != nil {
			return nil, report, fmt.Errorf("decode row %d: day: %w", i, err)
		}
		if !okM || !okD || m != month || d != day {
			report.DateMismatch++
			continue
		}

		temp, okT, err := parseFloat(cols[ColTemperature][i])
		if err != nil {
			return nil, report, fmt.Errorf("decode row %d: temperature: %w", i, err)
		}
		if !okT {
			report.MissingTemperature++
			continue
		}

		lat, okLat, err := parseFloat(cols[ColLatitude][i])
		if err != nil {
			return nil, report, fmt.Errorf("decode row %d: latitude: %w", i, err)
		}
		lon, okLon, err := parseFloat(cols[ColLongitude][i])
		if err != nil {
			return nil, report, fmt.Errorf("decode row %d: longitude: %w", i, err)
		}
		if !okLat || !okLon {
			report.MissingCoordinates++
			continue
		}

		loc := domain.Coordinate{Lat: lat, Lon: lon}
		if !loc.Valid() {
			report.OutOfRange++
			continue
		}

		key := domain.StationKey{StationID: cols[ColStationID][i], WBANID: cols[ColWBANID][i]}
		records = append(records, domain.JoinedRecord{
			Station:     domain.Station{Key: key, Location: loc},
			Observation: domain.Observation{Key: key, Month: m, Day: d, Temperature: temp},
		})
	}

	report.Kept = len(records)
	return records, report, nil
}

// readStrings loads every cell as a trimmed string. No cell is turned into NaN
// by the reader; missing values are recognised later by isMissing.
func readStrings(r io.Reader, opts ...dataframe.LoadOption) dataframe.DataFrame {
	opts = append(opts,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	df := dataframe.ReadCSV(r, opts...)
	if df.Err != nil {
		return df
	}
	return df.Capply(func(s series.Series) series.Series {
		recs := s.Records()
		for i := range recs {
			recs[i] = strings.TrimSpace(recs[i])
		}
		return series.New(recs, series.String, s.Name)
	})
}

// canonicalize renames header columns to their canonical names and keeps only want.
func canonicalize(df dataframe.DataFrame, want []string) (dataframe.DataFrame, error) {
	byNorm := make(map[string]string, len(want))
	for _, w := range want {
		byNorm[normalizeName(w)] = w
	}

	found := make(map[string]bool, len(want))
	for _, name := range df.Names() {
		canon, ok := byNorm[normalizeName(name)]
		if !ok || found[canon] {
			continue
		}
		found[canon] = true
		if name != canon {
			df = df.Rename(canon, name)
		}
	}

	for _, w := range want {
		if !found[w] {
			return dataframe.DataFrame{}, fmt.Errorf("missing column %q (have %s)", w, strings.Join(df.Names(), ","))
		}
	}

	df = df.Select(want)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
}

// checkFloats fails on the first cell that is neither missing nor a number.
// firstLine is the file line of row 0, used in the message.
func checkFloats(df dataframe.DataFrame, firstLine int, names ...string) error {
	for _, name := range names {
		for i, v := range df.Col(name).Records() {
			if _, _, err := parseFloat(v); err != nil {
				return fmt.Errorf("line %d: column %s: %w", firstLine+i, name, err)
			}
		}
	}
	return nil
}

func checkInts(df dataframe.DataFrame, firstLine int, names ...string) error {
	for _, name := range names {
		for i, v := range df.Col(name).Records() {
			if _, _, err := parseInt(v); err != nil {
				return fmt.Errorf("line %d: column %s: %w", firstLine+i, name, err)
			}
		}
	}
	return nil
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "<nil>":
		return true
	}
	return false
}

// parseFloat returns ok=false for a missing cell.
func parseFloat(s string) (float64, bool, error) {
	if isMissing(s) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("not finite: %q", s)
	}
	return v, true, nil
}

// parseInt accepts integral floats ("1.0") as written by some exports.
func parseInt(s string) (int, bool, error) {
	if isMissing(s) {
		return 0, false, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), true, nil
}

package gota

import (
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/station-idw/internal/domain"
)

// MonthDay is a calendar date without a year.
type MonthDay struct {
	Month int
	Day   int
}

// Audit summarises integrity problems across the station and observation tables.
type Audit struct {
	Stations     int
	Observations int

	DuplicateStations          []string // station keys appearing more than once
	StationsMissingCoordinates []string
	StationsOutOfRange         []string

	InvalidDates       []int // observation file lines with an impossible month/day
	MissingTemperature int
	OrphanObservations int      // observations whose key has no station
	OrphanKeys         []string // distinct keys behind OrphanObservations
	UnobservedStations int      // stations with no observation at all

	// Coverage counts observations with a temperature per calendar date.
	Coverage map[MonthDay]int
}

// AuditTables inspects tables as returned by LoadStations and LoadObservations.
func AuditTables(stations, observations dataframe.DataFrame) Audit {
	a := Audit{
		Stations:     stations.Nrow(),
		Observations: observations.Nrow(),
		Coverage:     make(map[MonthDay]int),
	}

	known := make(map[domain.StationKey]int, stations.Nrow())
	sIDs := stations.Col(ColStationID).Records()
	sWBAN := stations.Col(ColWBANID).Records()
	lats := stations.Col(ColLatitude).Records()
	lons := stations.Col(ColLongitude).Records()
	for i := range sIDs {
		key := domain.StationKey{StationID: sIDs[i], WBANID: sWBAN[i]}
		known[key]++
		if known[key] == 2 {
			a.DuplicateStations = append(a.DuplicateStations, key.String())
		}

		lat, okLat, _ := parseFloat(lats[i])
		lon, okLon, _ := parseFloat(lons[i])
		switch {
		case !okLat || !okLon:
			a.StationsMissingCoordinates = append(a.StationsMissingCoordinates, key.String())
		case !(domain.Coordinate{Lat: lat, Lon: lon}).Valid():
			a.StationsOutOfRange = append(a.StationsOutOfRange, key.String())
		}
	}

	observed := make(map[domain.StationKey]bool, len(known))
	orphans := make(map[domain.StationKey]bool)
	oIDs := observations.Col(ColStationID).Records()
	oWBAN := observations.Col(ColWBANID).Records()
	months := observations.Col(ColMonth).Records()
	days := observations.Col(ColDay).Records()
	temps := observations.Col(ColTemperature).Records()
	for i := range oIDs {
		key := domain.StationKey{StationID: oIDs[i], WBANID: oWBAN[i]}
		if known[key] == 0 {
			a.OrphanObservations++
			orphans[key] = true
		} else {
			observed[key] = true
		}

		m, okM, _ := parseInt(months[i])
		d, okD, _ := parseInt(days[i])
		if !okM || !okD || !validDate(m, d) {
			a.InvalidDates = append(a.InvalidDates, i+1)
			continue
		}
		if _, ok, _ := parseFloat(temps[i]); !ok {
			a.MissingTemperature++
			continue
		}
		a.Coverage[MonthDay{Month: m, Day: d}]++
	}

	for key := range known {
		if !observed[key] {
			a.UnobservedStations++
		}
	}
	for key := range orphans {
		a.OrphanKeys = append(a.OrphanKeys, key.String())
	}
	sort.Strings(a.OrphanKeys)
	return a
}

// validDate accepts any month/day that exists in a leap year.
func validDate(month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(2000, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day
}

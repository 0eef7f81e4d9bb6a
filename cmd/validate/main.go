// Command validate checks the station and observation tables before an
// estimation run: parse errors, duplicate or unplaceable stations, impossible
// dates, orphaned observations, and whether the target date has usable
// readings within the search radius.
//
// Settings come from the environment (see internal/config); flags override them.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -stations data/stations.csv \
//	  -observations data/1986.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/station-idw/internal/adapter/gota"
	"github.com/couchcryptid/station-idw/internal/config"
	"github.com/couchcryptid/station-idw/internal/domain"
)

// phase tracks pass/fail for a validation phase. Warnings never fail a phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.StationsPath, "stations", cfg.StationsPath, "path to the stations CSV (with header)")
	fs.StringVar(&cfg.ObservationsPath, "observations", cfg.ObservationsPath, "path to the observations CSV (no header)")
	fs.Float64Var(&cfg.TargetLat, "lat", cfg.TargetLat, "target latitude in degrees")
	fs.Float64Var(&cfg.TargetLon, "lon", cfg.TargetLon, "target longitude in degrees")
	fs.IntVar(&cfg.TargetMonth, "month", cfg.TargetMonth, "target month (1-12)")
	fs.IntVar(&cfg.TargetDay, "day", cfg.TargetDay, "target day of month")
	fs.Float64Var(&cfg.RadiusKm, "radius", cfg.RadiusKm, "search radius in kilometers")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "FATAL: config: %v\n", err)
		return 1
	}

	// ── Load both tables ──
	fmt.Fprintln(stdout, "=== Station Data Integrity Validation ===")
	fmt.Fprintln(stdout)

	stations, err := loadTable(cfg.StationsPath, gota.LoadStations)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load stations: %v\n", err)
		return 1
	}
	observations, err := loadTable(cfg.ObservationsPath, gota.LoadObservations)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load observations: %v\n", err)
		return 1
	}

	audit := gota.AuditTables(stations, observations)
	date := gota.MonthDay{Month: cfg.TargetMonth, Day: cfg.TargetDay}
	target := domain.Coordinate{Lat: cfg.TargetLat, Lon: cfg.TargetLon}

	// ── Run validation phases ──
	phases := []*phase{
		validateStations(audit),
		validateObservations(audit),
		validateJoin(audit),
		validateTargetDate(stations, observations, audit, date, target, cfg.RadiusKm),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d stations, %d observations, %d dates covered\n",
		audit.Stations, audit.Observations, len(audit.Coverage))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Fprintf(stdout, "  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

func loadTable(path string, load func(io.Reader) (dataframe.DataFrame, error)) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()
	return load(f)
}

// ── Phase 1: Stations ──
// Every station key must be unique and every coordinate in range.

func validateStations(a gota.Audit) *phase {
	p := &phase{name: "Phase 1: Station Table"}

	for _, key := range a.DuplicateStations {
		p.errorf("station %s appears more than once", key)
	}
	for _, key := range a.StationsOutOfRange {
		p.errorf("station %s has coordinates out of range", key)
	}
	if n := len(a.StationsMissingCoordinates); n > 0 {
		p.warnf("%d stations have no coordinates and will be skipped (first: %s)", n, a.StationsMissingCoordinates[0])
	}
	return p
}

// ── Phase 2: Observations ──
// Dates must exist on the calendar. Missing temperatures are tolerated.

func validateObservations(a gota.Audit) *phase {
	p := &phase{name: "Phase 2: Observation Table"}

	for _, line := range a.InvalidDates {
		p.errorf("line %d: month/day is not a calendar date", line)
	}
	if a.MissingTemperature > 0 {
		p.warnf("%d observations have no temperature and will be skipped", a.MissingTemperature)
	}
	return p
}

// ── Phase 3: Join ──
// Observations without a station are dropped by the inner join.

func validateJoin(a gota.Audit) *phase {
	p := &phase{name: "Phase 3: Station Key Join"}

	if a.Stations > 0 && a.Observations > 0 && a.OrphanObservations == a.Observations {
		p.errorf("no observation matches any station key")
	}
	if a.OrphanObservations > 0 {
		p.warnf("%d observations from %d unknown stations will be dropped (first: %s)",
			a.OrphanObservations, len(a.OrphanKeys), a.OrphanKeys[0])
	}
	if a.UnobservedStations > 0 {
		p.warnf("%d stations have no observations", a.UnobservedStations)
	}
	return p
}

// ── Phase 4: Target Date ──
// The target date needs at least one usable reading inside the radius.

func validateTargetDate(stations, observations dataframe.DataFrame, a gota.Audit, date gota.MonthDay, target domain.Coordinate, radiusKm float64) *phase {
	p := &phase{name: fmt.Sprintf("Phase 4: Target Date Coverage (%02d-%02d)", date.Month, date.Day)}

	if a.Coverage[date] == 0 {
		p.errorf("no observations with a temperature on %02d-%02d", date.Month, date.Day)
		if nearest := nearestDates(a.Coverage, date, 3); len(nearest) > 0 {
			p.warnf("dates with data: %v", nearest)
		}
		return p
	}

	dated, _, err := gota.FilterDate(observations, date.Month, date.Day)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	joined, err := gota.Join(stations, dated)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	records, report, err := gota.Decode(joined, date.Month, date.Day)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	inRadius := domain.WithinRadius(domain.Annotate(target, records), radiusKm)
	if len(inRadius) == 0 {
		p.errorf("%d usable records on this date but none within %.1f km of %s", len(records), radiusKm, target)
		return p
	}
	for reason, n := range report.Exclusions() {
		if reason == "date_mismatch" {
			continue
		}
		p.warnf("%d joined rows excluded: %s", n, reason)
	}
	p.warnf("%d stations within %.1f km of %s (nearest %.2f km)", len(inRadius), radiusKm, target, nearestKm(inRadius))
	return p
}

func nearestKm(records []domain.AnnotatedRecord) float64 {
	best := records[0].DistanceKm
	for _, r := range records[1:] {
		if r.DistanceKm < best {
			best = r.DistanceKm
		}
	}
	return best
}

// nearestDates lists up to n covered dates closest to date in day-of-year order.
func nearestDates(coverage map[gota.MonthDay]int, date gota.MonthDay, n int) []string {
	ord := func(d gota.MonthDay) int { return d.Month*32 + d.Day }
	dates := make([]gota.MonthDay, 0, len(coverage))
	for d := range coverage {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		di, dj := abs(ord(dates[i])-ord(date)), abs(ord(dates[j])-ord(date))
		if di != dj {
			return di < dj
		}
		return ord(dates[i]) < ord(dates[j])
	})
	if len(dates) > n {
		dates = dates[:n]
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = fmt.Sprintf("%02d-%02d", d.Month, d.Day)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package domain

import (
	"fmt"
	"time"
)

// FormatEstimate renders the one-line result, e.g.
// "The estimated temperature at Cape Canaveral on January 28, 1986, using
// inverse distance weighting, is 40.12 degrees F."
func FormatEstimate(e Estimate) string {
	return fmt.Sprintf(
		"The estimated temperature at %s on %s %d, %d, using inverse distance weighting, is %.2f degrees F.",
		e.TargetName, time.Month(e.Month), e.Day, e.Year, e.ValueF,
	)
}

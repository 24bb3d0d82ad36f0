package analysis

import (
	"fmt"
	"time"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/imagery"
)

// Defaults applied when a submission omits the optional parameters.
const (
	DefaultCloudCover   = 20.0
	DefaultHotThreshold = 37.0
	DefaultVegThreshold = 0.2
	DefaultDataset      = "LANDSAT/LC09/C02/T1_L2"
)

const (
	dateLayout       = "2006-01-02"
	minDateRangeDays = 7
	maxDateRangeDays = 365
)

// Params are the validated inputs of one analysis job.
type Params struct {
	Latitude     float64
	Longitude    float64
	StartDate    string
	EndDate      string
	CloudCover   float64
	HotThreshold float64
	VegThreshold float64
	Dataset      string
}

// Validate checks ranges, the date window, and that the dataset has a
// registered band profile. Returns the first violation found.
func (p Params) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", p.Longitude)
	}

	start, end, err := p.DateRange()
	if err != nil {
		return err
	}
	days := int(end.Sub(start).Hours() / 24)
	if days < minDateRangeDays {
		return fmt.Errorf("date range must be at least %d days", minDateRangeDays)
	}
	if days > maxDateRangeDays {
		return fmt.Errorf("date range cannot exceed %d days", maxDateRangeDays)
	}

	if p.CloudCover < 0 || p.CloudCover > 100 {
		return fmt.Errorf("cloudCover must be between 0 and 100, got %v", p.CloudCover)
	}
	if p.HotThreshold < 0 || p.HotThreshold > 60 {
		return fmt.Errorf("hotThreshold must be between 0 and 60, got %v", p.HotThreshold)
	}
	if p.VegThreshold < 0 || p.VegThreshold > 1 {
		return fmt.Errorf("vegThreshold must be between 0 and 1, got %v", p.VegThreshold)
	}

	if _, err := imagery.LookupProfile(p.Dataset); err != nil {
		return err
	}
	return nil
}

// DateRange parses the start and end dates and checks their ordering.
func (p Params) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate %q: expected YYYY-MM-DD", p.StartDate)
	}
	end, err = time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate %q: expected YYYY-MM-DD", p.EndDate)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must be before end date")
	}
	return start, end, nil
}

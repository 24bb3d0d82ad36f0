package imagery

import (
	"fmt"
	"sort"
	"sync"
)

// Profile describes how to derive vegetation and thermal indices from a
// dataset's bands. Profiles are registered per dataset id and selected at
// submission time, so the pipeline never inspects dataset names at runtime.
type Profile struct {
	Dataset string
	NIRBand string
	RedBand string

	// Thermal band calibration: LST °C = raw*ThermalScale + ThermalOffset - 273.15.
	ThermalBand   string
	ThermalScale  float64
	ThermalOffset float64

	// HasThermal is false for datasets without a thermal band; LST is then
	// approximated from NDVI.
	HasThermal bool
}

var (
	profilesMu sync.RWMutex
	profiles   = make(map[string]Profile)
)

// Register adds a band profile for a dataset id, replacing any existing one.
func Register(p Profile) {
	profilesMu.Lock()
	profiles[p.Dataset] = p
	profilesMu.Unlock()
}

// LookupProfile returns the band profile registered for a dataset id.
func LookupProfile(dataset string) (Profile, error) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	p, ok := profiles[dataset]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported dataset %q", dataset)
	}
	return p, nil
}

// Datasets returns the registered dataset ids, sorted.
func Datasets() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func init() {
	// Landsat Collection 2 Level 2 surface reflectance + surface temperature.
	Register(Profile{
		Dataset:       "LANDSAT/LC09/C02/T1_L2",
		NIRBand:       "SR_B5",
		RedBand:       "SR_B4",
		ThermalBand:   "ST_B10",
		ThermalScale:  0.00341802,
		ThermalOffset: 149.0,
		HasThermal:    true,
	})
	Register(Profile{
		Dataset:       "LANDSAT/LC08/C02/T1_L2",
		NIRBand:       "SR_B5",
		RedBand:       "SR_B4",
		ThermalBand:   "ST_B10",
		ThermalScale:  0.00341802,
		ThermalOffset: 149.0,
		HasThermal:    true,
	})
	// Sentinel-2 has no thermal band.
	Register(Profile{
		Dataset: "COPERNICUS/S2_SR_HARMONIZED",
		NIRBand: "B8",
		RedBand: "B4",
	})
	// MODIS daily land surface temperature.
	Register(Profile{
		Dataset:       "MODIS/061/MOD11A1",
		NIRBand:       "sur_refl_b02",
		RedBand:       "sur_refl_b01",
		ThermalBand:   "LST_Day_1km",
		ThermalScale:  0.02,
		ThermalOffset: 0,
		HasThermal:    true,
	})
}

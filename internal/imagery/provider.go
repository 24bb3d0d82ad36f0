// Package imagery defines the contract between the analysis pipeline and
// the satellite imagery backend, plus the band profiles that map dataset
// ids to index calculations.
package imagery

import (
	"context"
	"time"
)

// SceneRequest selects imagery for a point and date range.
type SceneRequest struct {
	Lat           float64
	Lon           float64
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	Dataset       string
}

// Scene is a raw acquisition returned by a provider: a grid of band values
// around the requested point.
type Scene struct {
	Dataset    string
	AcquiredAt time.Time
	CloudCover float64
	Pixels     []Pixel
}

// Pixel is one raw sample position with its band values.
type Pixel struct {
	Lat   float64
	Lon   float64
	Bands map[string]float64
}

// IndexedScene is a scene with vegetation and thermal indices computed for
// every pixel.
type IndexedScene struct {
	Scene   *Scene
	Indices []IndexedPixel
}

// IndexedPixel carries the derived NDVI and land surface temperature (°C)
// for one pixel.
type IndexedPixel struct {
	Lat  float64
	Lon  float64
	NDVI float64
	LST  float64
}

// Criteria selects hotspot candidates: pixels hotter than HotThreshold with
// sparse but present vegetation (0 < NDVI < VegThreshold).
type Criteria struct {
	HotThreshold float64
	VegThreshold float64
	MaxSamples   int
	RadiusMeters float64
}

// Sample is one candidate planting site drawn from the masked scene.
type Sample struct {
	Lat  float64
	Lon  float64
	NDVI float64
	LST  float64
}

// Provider is the imagery backend the pipeline runs against. Implementations
// may call remote services; every method reports failures as errors with a
// human-readable diagnostic.
type Provider interface {
	// Ready reports whether the backend is initialized and able to serve
	// scene requests. Checked before a session is created.
	Ready() bool

	// FetchScene returns the least cloudy acquisition matching the request.
	FetchScene(ctx context.Context, req SceneRequest) (*Scene, error)

	// ComputeIndices derives NDVI and LST for every pixel using the
	// dataset's band profile.
	ComputeIndices(ctx context.Context, scene *Scene, profile Profile) (*IndexedScene, error)

	// SampleHotspots masks the indexed scene by the criteria and returns up
	// to MaxSamples candidate points.
	SampleHotspots(ctx context.Context, scene *IndexedScene, c Criteria) ([]Sample, error)
}

package imagery

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

const (
	syntheticGridSize = 40
	metersPerDegree   = 111320.0
)

// Synthetic is a deterministic in-process imagery provider. It fabricates a
// plausible scene from the request coordinates, so the service runs end to
// end without an Earth Engine backend. The same request always produces the
// same scene.
type Synthetic struct {
	// CloudCoverFor overrides the generated cloud cover when set; used to
	// exercise the no-imagery path.
	CloudCoverFor func(req SceneRequest) float64
}

// NewSynthetic creates a synthetic imagery provider.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Ready always reports true: the synthetic backend has no remote dependency.
func (s *Synthetic) Ready() bool { return true }

// FetchScene fabricates a deterministic scene around the requested point.
func (s *Synthetic) FetchScene(ctx context.Context, req SceneRequest) (*Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := LookupProfile(req.Dataset)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(sceneSeed(req)))

	cloud := rng.Float64() * 40
	if s.CloudCoverFor != nil {
		cloud = s.CloudCoverFor(req)
	}
	if cloud > req.MaxCloudCover {
		return nil, fmt.Errorf("no imagery found in dataset %q for the given location and date range", req.Dataset)
	}

	// Span a grid over the region of interest.
	halfSpan := 5000.0 / metersPerDegree
	step := 2 * halfSpan / syntheticGridSize

	scene := &Scene{
		Dataset:    req.Dataset,
		AcquiredAt: req.Start.Add(req.End.Sub(req.Start) / 2),
		CloudCover: cloud,
		Pixels:     make([]Pixel, 0, syntheticGridSize*syntheticGridSize),
	}

	for i := 0; i < syntheticGridSize; i++ {
		for j := 0; j < syntheticGridSize; j++ {
			lat := req.Lat - halfSpan + float64(i)*step
			lon := req.Lon - halfSpan + float64(j)*step

			// Vegetation thins toward the center, heat peaks there: a
			// stylized urban core surrounded by greener outskirts.
			dist := math.Hypot(lat-req.Lat, lon-req.Lon) / halfSpan
			veg := clamp(0.1+0.7*dist+0.15*rng.NormFloat64(), 0.01, 0.95)
			heat := clamp(46-18*dist+2.5*rng.NormFloat64(), 12, 58)

			scene.Pixels = append(scene.Pixels, Pixel{
				Lat:   lat,
				Lon:   lon,
				Bands: bandsFor(profile, veg, heat),
			})
		}
	}

	return scene, nil
}

// ComputeIndices derives NDVI and LST per pixel from the raw band values.
func (s *Synthetic) ComputeIndices(ctx context.Context, scene *Scene, profile Profile) (*IndexedScene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scene == nil || len(scene.Pixels) == 0 {
		return nil, fmt.Errorf("scene has no pixels")
	}

	indexed := &IndexedScene{
		Scene:   scene,
		Indices: make([]IndexedPixel, 0, len(scene.Pixels)),
	}

	for _, px := range scene.Pixels {
		nir, nirOK := px.Bands[profile.NIRBand]
		red, redOK := px.Bands[profile.RedBand]
		if !nirOK || !redOK {
			return nil, fmt.Errorf("dataset %q pixel missing bands %s/%s", scene.Dataset, profile.NIRBand, profile.RedBand)
		}

		var ndvi float64
		if sum := nir + red; sum != 0 {
			ndvi = (nir - red) / sum
		}

		var lst float64
		if profile.HasThermal {
			raw, ok := px.Bands[profile.ThermalBand]
			if !ok {
				return nil, fmt.Errorf("dataset %q pixel missing thermal band %s", scene.Dataset, profile.ThermalBand)
			}
			lst = raw*profile.ThermalScale + profile.ThermalOffset - 273.15
		} else {
			// No thermal band: approximate LST from NDVI.
			lst = 50 - 50*ndvi
		}

		indexed.Indices = append(indexed.Indices, IndexedPixel{
			Lat:  px.Lat,
			Lon:  px.Lon,
			NDVI: ndvi,
			LST:  lst,
		})
	}

	return indexed, nil
}

// SampleHotspots masks the indexed scene by the criteria.
func (s *Synthetic) SampleHotspots(ctx context.Context, scene *IndexedScene, c Criteria) ([]Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var samples []Sample
	for _, px := range scene.Indices {
		if px.LST > c.HotThreshold && px.NDVI > 0 && px.NDVI < c.VegThreshold {
			samples = append(samples, Sample{Lat: px.Lat, Lon: px.Lon, NDVI: px.NDVI, LST: px.LST})
			if c.MaxSamples > 0 && len(samples) >= c.MaxSamples {
				break
			}
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no hotspots found with current thresholds; try lowering hotThreshold or vegThreshold")
	}
	return samples, nil
}

// bandsFor inverts the index math so ComputeIndices recovers the intended
// vegetation and heat values.
func bandsFor(profile Profile, ndvi, lstCelsius float64) map[string]float64 {
	// Pick red + nir with the desired normalized difference.
	red := 0.2
	nir := red * (1 + ndvi) / (1 - ndvi)

	bands := map[string]float64{
		profile.RedBand: red,
		profile.NIRBand: nir,
	}
	if profile.HasThermal {
		bands[profile.ThermalBand] = (lstCelsius + 273.15 - profile.ThermalOffset) / profile.ThermalScale
	}
	return bands
}

func sceneSeed(req SceneRequest) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.6f|%.6f|%s|%s|%s", req.Lat, req.Lon, req.Dataset,
		req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
	return int64(h.Sum64())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

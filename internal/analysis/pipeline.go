package analysis

import (
	"context"
	"math"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/cluster"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/imagery"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/maprender"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

const (
	roiRadiusMeters = 5000
	maxSamples      = 2000
)

// Deps are the external collaborators a pipeline runs against.
type Deps struct {
	Provider imagery.Provider
	MaxZones int

	// Log receives domain-level progress lines; the runner owns the stage
	// transition lines.
	Log *session.EventLog

	// SaveMap persists the rendered map artifact. Optional; when nil the
	// map is only embedded in the result.
	SaveMap func(name, html string) error
}

// pipelineState accumulates stage outputs; each stage consumes what the
// previous ones produced.
type pipelineState struct {
	scene   *imagery.Scene
	indexed *imagery.IndexedScene
	samples []imagery.Sample
	zones   []cluster.Zone

	minTemp, maxTemp, avgTemp float64

	mapHTML string
	mapName string
}

// BuildPipeline assembles the six analysis stages for one submission,
// returning the pipeline and the result composer the runner calls after
// the final stage.
func BuildPipeline(deps Deps, params Params) (Pipeline, func() any) {
	state := &pipelineState{}
	profile, _ := imagery.LookupProfile(params.Dataset) // validated at submission

	start, end, _ := params.DateRange() // validated at submission

	stages := Pipeline{
		{
			Name: "satellite data fetch",
			Run: func(ctx context.Context) error {
				deps.Log.Appendf("Fetching data from %s...", params.Dataset)
				scene, err := deps.Provider.FetchScene(ctx, imagery.SceneRequest{
					Lat:           params.Latitude,
					Lon:           params.Longitude,
					Start:         start,
					End:           end,
					MaxCloudCover: params.CloudCover,
					Dataset:       params.Dataset,
				})
				if err != nil {
					return err
				}
				state.scene = scene
				deps.Log.Appendf("Satellite data retrieved (cloud cover %.1f%%)", scene.CloudCover)
				return nil
			},
		},
		{
			Name: "index computation",
			Run: func(ctx context.Context) error {
				deps.Log.Append("Calculating NDVI (vegetation index)...")
				deps.Log.Append("Calculating LST (land surface temperature)...")
				indexed, err := deps.Provider.ComputeIndices(ctx, state.scene, profile)
				if err != nil {
					return err
				}
				state.indexed = indexed
				return nil
			},
		},
		{
			Name: "hotspot extraction",
			Run: func(ctx context.Context) error {
				deps.Log.Append("Extracting hotspots (areas with high temperature and low vegetation)...")
				samples, err := deps.Provider.SampleHotspots(ctx, state.indexed, imagery.Criteria{
					HotThreshold: params.HotThreshold,
					VegThreshold: params.VegThreshold,
					MaxSamples:   maxSamples,
					RadiusMeters: roiRadiusMeters,
				})
				if err != nil {
					return err
				}
				state.samples = samples
				deps.Log.Appendf("Extracted %d potential planting sites", len(samples))
				return nil
			},
		},
		{
			Name: "clustering",
			Run: func(ctx context.Context) error {
				deps.Log.Append("Running K-Means clustering to group similar hotspots...")
				points := make([]cluster.Point, len(state.samples))
				var tempSum float64
				for i, s := range state.samples {
					points[i] = cluster.Point{Lat: s.Lat, Lon: s.Lon, Temp: s.LST}
					tempSum += s.LST
				}
				fallback := tempSum / float64(len(points))

				state.zones = cluster.Zones(points, deps.MaxZones, fallback)
				deps.Log.Appendf("Identified %d priority zones", len(state.zones))
				return nil
			},
		},
		{
			Name: "statistics aggregation",
			Run: func(ctx context.Context) error {
				deps.Log.Append("Calculating temperature statistics...")
				minT, maxT := math.Inf(1), math.Inf(-1)
				for _, px := range state.indexed.Indices {
					minT = math.Min(minT, px.LST)
					maxT = math.Max(maxT, px.LST)
				}
				state.minTemp = minT
				state.maxTemp = maxT
				state.avgTemp = (minT + maxT) / 2
				deps.Log.Appendf("Temperature range: %.1f°C - %.1f°C", minT, maxT)
				return nil
			},
		},
		{
			Name: "map rendering",
			Run: func(ctx context.Context) error {
				deps.Log.Append("Generating interactive map...")
				markers := make([]maprender.Marker, len(state.samples))
				for i, s := range state.samples {
					markers[i] = maprender.Marker{Lat: s.Lat, Lon: s.Lon}
				}

				html, err := maprender.Render(maprender.Input{
					CenterLat: params.Latitude,
					CenterLon: params.Longitude,
					Hotspots:  markers,
					Zones:     state.zones,
				})
				if err != nil {
					return err
				}
				state.mapHTML = html
				state.mapName = maprender.FileName(params.Latitude, params.Longitude)

				if deps.SaveMap != nil {
					if err := deps.SaveMap(state.mapName, html); err != nil {
						return err
					}
					deps.Log.Appendf("Map saved as %s", state.mapName)
				}
				return nil
			},
		},
	}

	compose := func() any {
		return &Result{
			Success:        true,
			HotspotsFound:  len(state.samples),
			Clusters:       len(state.zones),
			MinTemperature: round2(state.minTemp),
			MaxTemperature: round2(state.maxTemp),
			AvgTemperature: round2(state.avgTemp),
			PriorityZones:  state.zones,
			AnalysisPeriod: Period{Start: params.StartDate, End: params.EndDate},
			MapHTML:        state.mapHTML,
			MapFileName:    state.mapName,
		}
	}

	return stages, compose
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package cluster groups sampled hotspot points into priority zones.
package cluster

import (
	"fmt"
	"math"
)

const (
	maxIterations = 100
	zoneAreaKm2   = 0.9 // approximate area contributed by one 30m-scale sample
)

// Point is one hotspot sample with its land surface temperature.
type Point struct {
	Lat  float64
	Lon  float64
	Temp float64
}

// Zone is one clustered priority planting zone.
type Zone struct {
	ID         int     `json:"id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Temp       float64 `json:"temp"`
	PointCount int     `json:"pointCount"`
	Area       string  `json:"area"`
}

// KMeans partitions points into k clusters by Lloyd's algorithm over
// (lat, lon). Returns the cluster centers and the per-point assignment.
// Farthest-point seeding keeps results deterministic for identical inputs.
func KMeans(points []Point, k int) (centers [][2]float64, assignment []int) {
	if len(points) == 0 || k < 1 {
		return nil, nil
	}
	if k > len(points) {
		k = len(points)
	}

	centers = seedCenters(points, k)

	assignment = make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearest(centers, p)
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids.
		sums := make([][2]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assignment[i]
			sums[c][0] += p.Lat
			sums[c][1] += p.Lon
			counts[c]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = [2]float64{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
			}
		}
	}

	return centers, assignment
}

// seedCenters picks the first point, then repeatedly the point farthest
// from all chosen centers (maximin seeding).
func seedCenters(points []Point, k int) [][2]float64 {
	centers := make([][2]float64, 0, k)
	centers = append(centers, [2]float64{points[0].Lat, points[0].Lon})

	for len(centers) < k {
		farIdx, farDist := 0, -1.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centers {
				if dist := math.Hypot(p.Lat-c[0], p.Lon-c[1]); dist < d {
					d = dist
				}
			}
			if d > farDist {
				farIdx, farDist = i, d
			}
		}
		centers = append(centers, [2]float64{points[farIdx].Lat, points[farIdx].Lon})
	}
	return centers
}

func nearest(centers [][2]float64, p Point) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centers {
		d := math.Hypot(p.Lat-c[0], p.Lon-c[1])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Zones clusters points into at most maxZones priority zones with per-zone
// temperature, point count, and approximate area. Zones with no member
// points use fallbackTemp.
func Zones(points []Point, maxZones int, fallbackTemp float64) []Zone {
	k := maxZones
	if len(points) < k {
		k = len(points)
	}
	if k < 1 {
		return nil
	}

	centers, assignment := KMeans(points, k)

	zones := make([]Zone, 0, len(centers))
	for i, c := range centers {
		var tempSum float64
		count := 0
		for j, a := range assignment {
			if a == i {
				tempSum += points[j].Temp
				count++
			}
		}

		temp := fallbackTemp
		if count > 0 {
			temp = tempSum / float64(count)
		}

		zones = append(zones, Zone{
			ID:         i + 1,
			Lat:        c[0],
			Lon:        c[1],
			Temp:       round2(temp),
			PointCount: count,
			Area:       fmt.Sprintf("%.1f km²", float64(count)*zoneAreaKm2),
		})
	}

	return zones
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

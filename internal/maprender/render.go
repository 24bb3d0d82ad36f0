// Package maprender produces a self-contained Leaflet HTML document
// visualizing hotspot samples and priority planting zones.
package maprender

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/cluster"
)

// Marker is one red hotspot sample on the map.
type Marker struct {
	Lat float64
	Lon float64
}

// Input is everything the renderer needs for one map.
type Input struct {
	CenterLat float64
	CenterLon float64
	Hotspots  []Marker
	Zones     []cluster.Zone
}

var pageTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Urban Heat Map</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 12);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{range .Hotspots}}
L.circleMarker([{{.Lat}}, {{.Lon}}], {radius: 2, color: 'red', fillOpacity: 0.6})
  .bindTooltip('Potential hotspot').addTo(map);
{{end}}
{{range .Zones}}
L.marker([{{.Lat}}, {{.Lon}}])
  .bindPopup('<b>Priority Planting Zone #{{.ID}}</b><br>Center of Heat Cluster<br>' +
    '<a href="https://www.google.com/maps?q={{.Lat}},{{.Lon}}" target="_blank">({{printf "%.5f" .Lat}}, {{printf "%.5f" .Lon}})</a>')
  .addTo(map);
{{end}}
</script>
</body>
</html>
`))

// Render returns the map HTML for the given input.
func Render(in Input) (string, error) {
	var b strings.Builder
	if err := pageTmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render map: %w", err)
	}
	return b.String(), nil
}

// FileName returns the canonical artifact name for a map centered at the
// given coordinates.
func FileName(lat, lon float64) string {
	return fmt.Sprintf("urban_heat_map_%v_%v.html", lat, lon)
}

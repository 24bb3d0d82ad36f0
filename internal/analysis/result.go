package analysis

import "github.com/parultandon1999/gee-urban-heat-analyzer/internal/cluster"

// Period is the analyzed date window.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Result is the structured payload of a completed analysis.
type Result struct {
	Success        bool           `json:"success"`
	HotspotsFound  int            `json:"hotspotsFound"`
	Clusters       int            `json:"clusters"`
	MinTemperature float64        `json:"minTemperature"`
	MaxTemperature float64        `json:"maxTemperature"`
	AvgTemperature float64        `json:"avgTemperature"`
	PriorityZones  []cluster.Zone `json:"priorityZones"`
	AnalysisPeriod Period         `json:"analysisPeriod"`
	MapHTML        string         `json:"mapHtml"`
	MapFileName    string         `json:"mapFileName"`
}

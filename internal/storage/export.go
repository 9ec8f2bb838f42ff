package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rigidsync/internal/sim"
)

type ExportTrack struct {
	Name      string       `json:"name"`
	Positions [][3]float64 `json:"positions"`
}

type ExportData struct {
	Scene    string             `json:"scene"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Tracks   []ExportTrack      `json:"tracks"`
	Onsets   []OnsetRecord      `json:"onsets"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(scene string, dt, duration float64, result *sim.Result) ExportData {
	data := ExportData{
		Scene:    scene,
		Dt:       dt,
		Duration: duration,
		Steps:    len(result.Times),
		Times:    result.Times,
		Tracks:   make([]ExportTrack, len(result.Tracks)),
		Onsets:   make([]OnsetRecord, len(result.Onsets)),
		Metrics:  finiteMetrics(result.Metrics),
	}
	for i, t := range result.Tracks {
		et := ExportTrack{Name: t.Name, Positions: make([][3]float64, len(t.Positions))}
		for j, p := range t.Positions {
			et.Positions[j] = p
		}
		data.Tracks[i] = et
	}
	for i, o := range result.Onsets {
		data.Onsets[i] = OnsetRecord{Frame: o.Frame, Time: o.Time, Key: o.Key.String()}
	}
	return data
}

// WriteJSON encodes an ExportData to w.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

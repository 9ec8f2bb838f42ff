package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/sim"
)

var ErrNoTrack = errors.New("storage: proxy not recorded in run")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type OnsetRecord struct {
	Frame int     `json:"frame"`
	Time  float64 `json:"time"`
	Key   string  `json:"key"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	KeyPolicy string             `json:"key_policy"`
	Frames    int                `json:"frames"`
	Tracks    []string           `json:"tracks"`
	Onsets    []OnsetRecord      `json:"onsets"`
	Metrics   map[string]float64 `json:"metrics"`
	Errors    []string           `json:"errors,omitempty"`
}

// Save writes metadata.json and trajectories.csv into a new run directory
// named after the scene and the current time. ID, Timestamp and the fields
// derived from result are filled in by Save.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(meta.Scene, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = result.StepsTaken
	meta.Metrics = finiteMetrics(result.Metrics)
	meta.Tracks = make([]string, len(result.Tracks))
	for i, t := range result.Tracks {
		meta.Tracks[i] = t.Name
	}
	meta.Onsets = make([]OnsetRecord, len(result.Onsets))
	for i, o := range result.Onsets {
		meta.Onsets[i] = OnsetRecord{Frame: o.Frame, Time: o.Time, Key: o.Key.String()}
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectories.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeTrajectories(w, result); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// finiteMetrics drops values JSON cannot encode.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Store) newRunDir(scene string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", scene, now.Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeTrajectories(w *csv.Writer, result *sim.Result) error {
	header := []string{"time"}
	for _, t := range result.Tracks {
		header = append(header, t.Name+".x", t.Name+".y", t.Name+".z")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, tm := range result.Times {
		row := []string{strconv.FormatFloat(tm, 'f', 6, 64)}
		for _, t := range result.Tracks {
			if i >= len(t.Positions) {
				row = append(row, "", "", "")
				continue
			}
			for _, val := range t.Positions[i] {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads the recorded positions of one proxy.
func (s *Store) LoadTrajectory(runID, proxy string) ([]float64, []mgl64.Vec3, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectories.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoTrack, proxy)
	}

	col := -1
	for i, name := range records[0] {
		if name == proxy+".x" {
			col = i
			break
		}
	}
	if col < 0 || col+2 >= len(records[0]) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoTrack, proxy)
	}

	times := make([]float64, 0, len(records)-1)
	positions := make([]mgl64.Vec3, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) <= col+2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		var p mgl64.Vec3
		ok := true
		for j := 0; j < 3; j++ {
			val, err := strconv.ParseFloat(record[col+j], 64)
			if err != nil {
				ok = false
				break
			}
			p[j] = val
		}
		if !ok {
			continue
		}
		times = append(times, t)
		positions = append(positions, p)
	}

	return times, positions, nil
}

package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"protozoa/internal/model"
)

const (
	runIndexFile    = "run_index.json"
	configFile      = "config.json"
	traceFile       = "trace.csv"
	summaryFile     = "summary.json"
	regulationsFile = "regulations.json"
)

var traceHeader = []string{"tick", "x", "y", "heading", "speed", "energy", "vfe", "mode"}

type RunArtifacts struct {
	Run         model.RunRecord
	Samples     []model.TickSample
	Regulations []model.RegulationRecord
	Summary     model.RunSummary
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	SweepID      string  `json:"sweep_id,omitempty"`
	Seed         int64   `json:"seed"`
	Profile      string  `json:"profile"`
	Ticks        uint64  `json:"ticks"`
	FinalEnergy  float64 `json:"final_energy"`
	Landmarks    int     `json:"landmarks"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteRunArtifacts lays a finished run out under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := WriteTrace(filepath.Join(runDir, traceFile), artifacts.Samples); err != nil {
		return "", err
	}
	regs := artifacts.Regulations
	if regs == nil {
		regs = []model.RegulationRecord{}
	}
	if err := writeJSON(filepath.Join(runDir, regulationsFile), regs); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	return runDir, nil
}

func WriteTrace(path string, samples []model.TickSample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(traceHeader); err != nil {
		return err
	}
	for _, s := range samples {
		if err := writer.Write([]string{
			strconv.FormatUint(s.Tick, 10),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Heading),
			formatFloat(s.Speed),
			formatFloat(s.Energy),
			formatFloat(s.FreeEnergy),
			s.Mode,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadTrace loads trace.csv back. Columns not carried by the CSV stay zero.
func ReadTrace(baseDir, runID string) ([]model.TickSample, bool, error) {
	path := filepath.Join(baseDir, runID, traceFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.TickSample{}, true, nil
		}
		return nil, false, err
	}
	if len(header) != len(traceHeader) {
		return nil, false, fmt.Errorf("trace header must have %d columns, got %d", len(traceHeader), len(header))
	}

	samples := make([]model.TickSample, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		sample, err := parseTraceRow(record)
		if err != nil {
			return nil, false, err
		}
		samples = append(samples, sample)
	}
	return samples, true, nil
}

func parseTraceRow(record []string) (model.TickSample, error) {
	if len(record) != len(traceHeader) {
		return model.TickSample{}, fmt.Errorf("trace row must have %d columns", len(traceHeader))
	}
	tick, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return model.TickSample{}, fmt.Errorf("trace tick: %w", err)
	}
	values := make([]float64, 6)
	for i := range values {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return model.TickSample{}, fmt.Errorf("trace %s: %w", traceHeader[i+1], err)
		}
		values[i] = v
	}
	return model.TickSample{
		Tick:       tick,
		X:          values[0],
		Y:          values[1],
		Heading:    values[2],
		Speed:      values[3],
		Energy:     values[4],
		FreeEnergy: values[5],
		Mode:       record[7],
	}, nil
}

func ReadSummary(baseDir, runID string) (model.RunSummary, bool, error) {
	var summary model.RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

func ReadRunConfig(baseDir, runID string) (model.RunRecord, bool, error) {
	var run model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &run)
	return run, ok, err
}

func ReadRegulations(baseDir, runID string) ([]model.RegulationRecord, bool, error) {
	var regs []model.RegulationRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, regulationsFile), &regs)
	return regs, ok, err
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, traceFile, summaryFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	regsPath := filepath.Join(src, regulationsFile)
	if _, err := os.Stat(regsPath); err == nil {
		if err := copyFile(regsPath, filepath.Join(dst, regulationsFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}
	return dst, nil
}

func IndexEntry(run model.RunRecord, summary model.RunSummary) RunIndexEntry {
	return RunIndexEntry{
		RunID:        run.ID,
		SweepID:      run.SweepID,
		Seed:         run.Seed,
		Profile:      run.Profile,
		Ticks:        summary.Ticks,
		FinalEnergy:  summary.FinalEnergy,
		Landmarks:    summary.Landmarks,
		CreatedAtUTC: run.StartedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"),
	}
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCanceled  RunStatus = "canceled"
	RunFailed    RunStatus = "failed"
)

// MorphologyRecord is the persisted form of an organism's morphology.
type MorphologyRecord struct {
	SensorDist          float64 `json:"sensor_dist"`
	SensorAngle         float64 `json:"sensor_angle"`
	BeliefLearningRate  float64 `json:"belief_learning_rate"`
	TargetConcentration float64 `json:"target_concentration"`
}

// RunRecord describes one simulation run and how it was seeded.
type RunRecord struct {
	VersionedRecord
	ID          string           `json:"id"`
	SweepID     string           `json:"sweep_id,omitempty"`
	Seed        int64            `json:"seed"`
	Ticks       int              `json:"ticks"`
	SampleEvery int              `json:"sample_every"`
	Profile     string           `json:"profile"`
	Start       MorphologyRecord `json:"start"`
	StartX      float64          `json:"start_x"`
	StartY      float64          `json:"start_y"`
	Status      RunStatus        `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at,omitempty"`
}

// TickSample is one sampled row of a run trace.
type TickSample struct {
	Tick             uint64           `json:"tick"`
	X                float64          `json:"x"`
	Y                float64          `json:"y"`
	Heading          float64          `json:"heading"`
	Speed            float64          `json:"speed"`
	Energy           float64          `json:"energy"`
	FreeEnergy       float64          `json:"free_energy"`
	BelievedNutrient float64          `json:"believed_nutrient"`
	Left             float64          `json:"left"`
	Right            float64          `json:"right"`
	Mode             string           `json:"mode"`
	PlannedAction    string           `json:"planned_action"`
	Landmarks        int              `json:"landmarks"`
	Morphology       MorphologyRecord `json:"morphology"`
}

// RegulationRecord is one morphogenesis or allostasis event.
type RegulationRecord struct {
	Tick   uint64           `json:"tick"`
	Kind   string           `json:"kind"`
	Signal float64          `json:"signal"`
	Cost   float64          `json:"cost"`
	Before MorphologyRecord `json:"before"`
	After  MorphologyRecord `json:"after"`
}

// RunSummary aggregates a finished run.
type RunSummary struct {
	VersionedRecord
	RunID          string           `json:"run_id"`
	Ticks          uint64           `json:"ticks"`
	FinalEnergy    float64          `json:"final_energy"`
	MinEnergy      float64          `json:"min_energy"`
	MeanFreeEnergy float64          `json:"mean_free_energy"`
	FinalX         float64          `json:"final_x"`
	FinalY         float64          `json:"final_y"`
	Landmarks      int              `json:"landmarks"`
	Morphology     MorphologyRecord `json:"morphology"`
	Complexity     float64          `json:"complexity"`
	Morphogenesis  int              `json:"morphogenesis"`
	Allostasis     int              `json:"allostasis"`
	ModeTicks      map[string]int   `json:"mode_ticks"`
	NonFinite      uint64           `json:"non_finite"`
}

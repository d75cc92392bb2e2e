// Package params holds the simulation hyperparameters shared by the scape,
// the cognition core and the run harness.
package params

import "math"

// Sensing and locomotion.
const (
	TargetConcentration = 0.8
	SensorDist          = 2.0
	// SensorAngle is the stereo half-spread in radians (~28.6 degrees).
	SensorAngle = 0.5
	MaxSpeed    = 1.5
	// MinPredictedSpeed is the speed assumed when forecasting a move from rest.
	MinPredictedSpeed = 0.5
)

// Behavior.
const (
	PanicThreshold        = -0.01
	PanicTurnRange        = 2.0
	NoiseScale            = 0.5
	ExhaustionThreshold   = 0.01
	ExhaustionSpeedFactor = 0.5
	MinSpeedFraction      = 0.1
	ReactiveGain          = 0.1
	// Exploiting mode requires a well-known, rich cell and low surprise.
	ExploitMinPrecision = 5.0
	ExploitMinNutrient  = 0.6
	ExploitMaxVFE       = 1.0
)

// Heading blend weights.
const (
	EFEWeight      = 0.4
	PlanningWeight = 0.2
	ReactiveWeight = 0.2
)

// Metabolism.
const (
	BaseMetabolicCost  = 0.0005
	SpeedMetabolicCost = 0.0025
	IntakeRate         = 0.03
)

// Petri dish.
const (
	DishWidth          = 100.0
	DishHeight         = 50.0
	SourceMargin       = 10.0
	SourceRadiusMin    = 2.5
	SourceRadiusMax    = 8.0
	SourceIntensityMin = 0.5
	SourceIntensityMax = 1.0
	SourceDecayMin     = 0.990
	SourceDecayMax     = 0.998
	BrownianStep       = 0.5
	RespawnThreshold   = 0.05
	SourceCountMin     = 5
	SourceCountMax     = 10
)

// Memory.
const (
	HistorySize       = 32
	GridWidth         = 20
	GridHeight        = 10
	PriorLearningRate = 0.1
	InitialCellMean   = 0.0
	InitialCellVar    = 1.0
	ExplorationScale  = 0.3
	MinPrecision      = 0.1
	MaxPrecision      = 10.0
)

// Episodic memory.
const (
	MaxLandmarks            = 8
	LandmarkThreshold       = 0.7
	LandmarkDecay           = 0.995
	LandmarkPruneBelow      = 0.01
	LandmarkAttractionScale = 0.5
	LandmarkVisitRadius     = 5.0
)

// Planning.
const (
	MCTSRollouts       = 50
	MCTSDepth          = 10
	MCTSReplanInterval = 20
	MCTSUrgentEnergy   = 0.3
	MCTSDiscount       = 0.9
	EpistemicWeight    = 0.5
	TurnDelta          = 0.3
)

// Active inference.
const (
	BeliefLearningRate      = 0.15
	MaxVFE                  = 5.0
	InitialSensoryPrecision = 5.0
	NutrientPriorPrecision  = 2.0
	PositionPriorPrecision  = 0.001
	HeadingPriorPrecision   = 0.001
	MinSensoryPrecision     = 0.5
	MaxSensoryPrecision     = 20.0
	PrecisionSmoothing      = 0.1
	UncertaintyGrowth       = 1.1
	UncertaintyReduction    = 0.95
	InitialBeliefVariance   = 1.0
	MinBeliefVariance       = 0.01
	MaxBeliefVariance       = 10.0
	InitialNutrientBelief   = 0.5
	MaxGradient             = 10.0
	// ObservationGain scales how strongly the sensor spread separates the
	// predicted left and right readings.
	ObservationGain = 0.2
)

// Morphogenesis (System 2).
const (
	MorphWindowSize              = 50
	MorphSurpriseThreshold       = 2.0
	MorphFrustrationThreshold    = 1.0
	MorphAccumulatorDecay        = 0.9
	SensorDistEnergyCost         = 0.1
	SensorAngleEnergyCost        = 0.05
	LearningRateEnergyCost       = 0.02
	MinSensorDist                = 1.0
	MaxSensorDist                = 4.0
	SensorDistRate               = 0.1
	MinSensorAngle               = 0.2
	MaxSensorAngle               = 1.0
	SensorAngleRate              = 0.05
	MinLearningRate              = 0.05
	MaxLearningRate              = 0.3
	LearningRateRate             = 0.01
	MinTarget                    = 0.5
	MaxTarget                    = 0.9
	TargetRate                   = 0.02
	TargetRecovery               = 0.05
	BaseComplexityWeight         = 1.0
	SensorDistComplexityFactor   = 0.1
	SensorAngleComplexityFactor  = 0.05
	LearningRateComplexityFactor = 0.02
)

// TwoPi is the heading period.
const TwoPi = 2 * math.Pi

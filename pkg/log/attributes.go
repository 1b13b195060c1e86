package log

// Standard attribute keys. They follow a hierarchical naming convention
// ("model.name", "data.samples") so that log lines can be filtered by prefix.

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "RandomForestRegressor", "DecisionTreeRegressor"
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier (UUID) for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of an experiment.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"

	// DataPathKey is the source file a dataset was read from.
	DataPathKey = "data.path"
)

// Performance and Metrics
const (
	DurationMsKey = "perf.duration_ms"

	// MAEKey records mean absolute error.
	MAEKey = "metrics.mae"

	// R2ScoreKey records R² coefficient of determination for regression.
	// Range is (-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// OOBScoreKey records the out-of-bag R².
	OOBScoreKey = "metrics.oob_score"
)

// Forest structure
const (
	// TreesKey is the number of trees in a forest.
	TreesKey = "forest.trees"

	// TreeIndexKey is the position of a tree within its forest.
	TreeIndexKey = "forest.tree_index"

	// NodesKey is the number of nodes in a tree.
	NodesKey = "tree.nodes"

	// DepthKey is the depth of a tree.
	DepthKey = "tree.depth"

	// WorkersKey is the number of concurrent tree builders.
	WorkersKey = "forest.workers"
)

// Prediction Context
const (
	PredsKey = "preds.count"
)

// Error Context
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// TestFractionKey records the held-out fraction of a train/test split.
	TestFractionKey = "config.test_fraction"

	// FoldKey is the index of a cross-validation fold.
	FoldKey = "config.fold"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSplit   = "split"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
	PhaseInference  = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)

// Standard attribute keys for pipeline and model logging.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log lines from preparation and evaluation can be
// filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the display name of a model ("Random Forest").
	ModelNameKey = "model.name"

	// ModelKeyKey is the short registry key of a model ("rf").
	ModelKeyKey = "model.key"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"

	// RunIDKey identifies one pipeline run.
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ColumnKey names a single input column.
	ColumnKey = "data.column"

	// DroppedKey counts rows removed by the missing-value policy.
	DroppedKey = "data.dropped_rows"

	// SplitKey names a partition ("train", "test").
	SplitKey = "data.split"

	// PathKey is a file path read or written.
	PathKey = "io.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy for evaluation operations.
	AccuracyKey = "metrics.accuracy"

	// F1MacroKey records the macro-averaged F1 score.
	F1MacroKey = "metrics.f1_macro"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records root mean squared error for regression.
	RMSEKey = "metrics.rmse"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// TestSizeKey records the test partition ratio.
	TestSizeKey = "config.test_size"

	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseLoading       = "loading"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseReporting     = "reporting"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorPanic             = "PANIC"
)

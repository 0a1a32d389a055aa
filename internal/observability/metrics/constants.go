package metrics

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pipeline label values.
const (
	PipelineBuild    = "build"
	PipelineRebuild  = "rebuild"
	PipelineValidate = "validate"
	PipelineImport   = "import"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketFactor2 is the exponential growth factor of 2.
	BucketFactor2 = 2
	// BucketCount20 covers 1ms to ~9 minutes.
	BucketCount20 = 20
)

// SplitPartsCount is the number of parts an operation string splits into.
const SplitPartsCount = 2

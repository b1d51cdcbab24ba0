package pipeline

// Stage is a step in the lifecycle of one search.
type Stage string

const (
	StageReceived   Stage = "received"
	StageClassified Stage = "classified"
	StageFetching   Stage = "fetching"
	StageAggregated Stage = "aggregated"
	StageScoring    Stage = "scoring"
	StageAssembled  Stage = "assembled"
	StageCached     Stage = "cached"
	StageError      Stage = "error"
)

// ProgressEvent reports a stage transition.
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Jobs    int    `json:"jobs,omitempty"`
}

// ProgressCallback is called synchronously on every stage transition.
type ProgressCallback func(event ProgressEvent)

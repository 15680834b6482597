package domain

import "time"

// Stage names a step of the snapshot pipeline.
type Stage string

const (
	StageConfig              Stage = "config"
	StageFetchRaw            Stage = "fetch_raw"
	StagePersistRaw          Stage = "persist_raw"
	StageFilter              Stage = "filter"
	StageReadPreviousDerived Stage = "read_previous_derived"
	StageMerge               Stage = "merge"
	StagePersistDerived      Stage = "persist_derived"
	StageDone                Stage = "done"
)

// Outcome is the structured result of one pipeline run.
type Outcome struct {
	RunID              string    `json:"run_id"`
	Success            bool      `json:"success"`
	Skipped            bool      `json:"skipped,omitempty"`
	Stage              Stage     `json:"stage"`
	Error              string    `json:"error,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	RawSize            int       `json:"raw_size"`
	AssetCount         int       `json:"asset_count"`
	FilteredSize       int       `json:"filtered_size"`
	SideEntryPreserved bool      `json:"side_entry_preserved"`
	RawRevision        string    `json:"raw_revision,omitempty"`
	DerivedRevision    string    `json:"derived_revision,omitempty"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// Duration reports how long the run took.
func (o Outcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

package models

// TransferVersion is the current version written into exported transfer files.
const TransferVersion = 1

// TransferEnvelope is the portable document format used for file export and
// import of attempt histories. Unknown future versions are still accepted on
// import; only the attempts array is mandatory.
type TransferEnvelope struct {
	Version    int           `json:"version"`
	ExportedAt string        `json:"exportedAt,omitempty"`
	Attempts   []QuizAttempt `json:"attempts"`
}

// MergeSummary accounts for a single merge: how many incoming attempts were
// newly added and how many were skipped as duplicates. ImportedCount plus
// SkippedCount always equals the size of the incoming collection.
type MergeSummary struct {
	ImportedCount int `json:"importedCount"`
	SkippedCount  int `json:"skippedCount"`
}

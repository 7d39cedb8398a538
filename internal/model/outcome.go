package model

// CommitResult is the outcome of applying one decision.
type CommitResult string

// Commit results.
const (
	ResultApplied CommitResult = "APPLIED"
	ResultFailed  CommitResult = "FAILED"
)

// CommitOperation names the store call used for an item.
type CommitOperation string

// Commit operations.
const (
	OperationInsert CommitOperation = "insert"
	OperationUpdate CommitOperation = "update"
)

// CommitOutcome reports what happened to a single committed candidate.
type CommitOutcome struct {
	CandidateRef string          `json:"candidate_ref"`
	MerchantName string          `json:"merchant_name"`
	Operation    CommitOperation `json:"operation"`
	Result       CommitResult    `json:"result"`
	ErrorDetail  string          `json:"error_detail,omitempty"`
}

// ScanResult is returned to the caller after a scan completes.
type ScanResult struct {
	Message    string                `json:"message,omitempty"`
	Candidates []ClassifiedCandidate `json:"candidates"`
	Found      int                   `json:"found"`
	Scanned    int                   `json:"scanned"`
	Success    bool                  `json:"success"`
}

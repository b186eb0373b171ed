package httpapi

// IngestStatus is the rolling view of the ingest pipeline, served on
// GET /ingest/status and kept in an atomic.Value.
type IngestStatus struct {
	Admitted   int64  `json:"admitted"`
	Duplicates int64  `json:"duplicates"`
	Rejected   int64  `json:"rejected"`
	LastAt     string `json:"last_at"`
	LastError  string `json:"last_error"`
}

package api

// errorResponse is the free-text error body every handler emits on failure.
type errorResponse struct {
	Error string `json:"error"`
}

// createFailureResponse mirrors the create endpoint's failure shape, which
// the dashboard surfaces verbatim.
type createFailureResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// messageResponse is the static success body for deletes.
type messageResponse struct {
	Message string `json:"message"`
}

// healthResponse reports liveness and whether a bulk load is in progress.
type healthResponse struct {
	Status  string `json:"status"`
	Seeding bool   `json:"seeding"`
}

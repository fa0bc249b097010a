package rest

// errorBody is the JSON body the catalog returns with a non-2xx status.
// Every field is optional on the wire.
type errorBody struct {
	Error      string   `json:"error"`
	StatusCode int      `json:"statusCode,omitempty"`
	Details    []string `json:"details,omitempty"`
}

// batchDeleteRequest is the body of POST /api/tracks/delete.
type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

package api

// Envelope wraps every response body. Errors is only set on failure, in
// which case Result is omitted.
type Envelope struct {
	Status   int      `json:"status"`
	Instance string   `json:"instance"`
	Errors   []string `json:"errors,omitempty"`
	Result   any      `json:"result,omitempty"`
}

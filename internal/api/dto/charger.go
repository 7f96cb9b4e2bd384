package dto

type ListChargersResponse struct {
	Chargers []ChargerResponse `json:"chargers"`
}

// ErrorResponse is the structured failure payload: the kind names the error
// taxonomy entry, detail carries context such as the segment where
// feasibility broke.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

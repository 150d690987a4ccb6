package types

// SuccessEnvelope wraps every JSON success body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Fragment is rendered HTML returned next to JSON state so open views can
// repaint without a full page load.
type Fragment struct {
	Badge string `json:"badge"`
	Panel string `json:"panel"`
}

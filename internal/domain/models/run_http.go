package models

// Requests for run HTTP endpoints. Defined in domain for consistency and reuse.

type SubmitRunRequest struct {
	Mode      string             `json:"mode" default:"prompt" validate:"oneof=prompt ticker"`
	Prompt    string             `json:"prompt" validate:"omitempty,max=4000"`
	Ticker    string             `json:"ticker" validate:"omitempty,max=10"`
	Providers []ProviderRefParam `json:"providers" validate:"required,min=1,dive"`
	Template  string             `json:"template" default:"custom"`
}

type ProviderRefParam struct {
	Provider string `json:"provider" validate:"required"`
	Model    string `json:"model" validate:"required"`
}

package inbound

type SendRequest struct {
	Channel      string `json:"channel"`
	Destination  string `json:"destination"`
	GenerateOnly bool   `json:"generate_only,omitempty"`
}

type SendResponse struct {
	OperationID string `json:"operation_id"`
	Channel     string `json:"channel"`
	ExpiresAt   int64  `json:"expires_at"`
	Code        string `json:"code,omitempty"`
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type ValidateRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type VerifyResponse struct {
	OperationID string `json:"operation_id"`
}

type ConfigRequest struct {
	CodeLength      int32 `json:"code_length"`
	LifetimeMinutes int32 `json:"lifetime_minutes"`
}

type ConfigResponse struct {
	CodeLength      int32 `json:"code_length"`
	LifetimeMinutes int32 `json:"lifetime_minutes"`
}

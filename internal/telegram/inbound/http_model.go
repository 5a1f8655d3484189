package inbound

type LinkTokenResponse struct {
	Token            string `json:"token"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

type StatusResponse struct {
	Linked bool `json:"linked"`
}

type SendOTPResponse struct {
	OperationID string `json:"operation_id"`
	ExpiresAt   int64  `json:"expires_at"`
}

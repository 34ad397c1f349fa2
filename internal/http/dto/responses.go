package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type VerifyPurchaseResponse struct {
	Success  bool `json:"success"`
	Purchase any  `json:"purchase"`
}

type RefundResponse struct {
	Success  bool `json:"success"`
	Purchase any  `json:"purchase"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // TON, decimal string
}

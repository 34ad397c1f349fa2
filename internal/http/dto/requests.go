package dto

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

type SubmitPurchaseRequest struct {
	WalletAddress   string `json:"wallet_address"`
	TransactionHash string `json:"transaction_hash"`
	Amount          string `json:"amount"` // TON, decimal string
}

type ProcessRefundRequest struct {
	PurchaseID string `json:"purchase_id"`
}

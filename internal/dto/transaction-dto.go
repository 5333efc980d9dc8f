package dto

import "time"

// CreateTransactionRequest covers the cashier/manager entry point: type is
// either "purchase" (spent + optional promotion ids) or "adjustment"
// (signed amount + related transaction id).
type CreateTransactionRequest struct {
	Utorid       string   `json:"utorid"`
	Type         string   `json:"type"`
	Spent        *float64 `json:"spent"`
	Amount       *int     `json:"amount"`
	RelatedID    *uint    `json:"relatedId"`
	Remark       string   `json:"remark"`
	PromotionIDs []uint   `json:"promotionIds"`
}

// TransferRequest accompanies POST /users/:userId/transactions; the
// recipient comes from the path.
type TransferRequest struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
	Remark string `json:"remark"`
}

type TransferResponse struct {
	ID        uint   `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    int    `json:"amount"`
	Remark    string `json:"remark"`
}

type RedemptionRequest struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
	Remark string `json:"remark"`
}

type SuspiciousRequest struct {
	Suspicious *bool `json:"suspicious"`
}

type ProcessedRequest struct {
	Processed *bool `json:"processed"`
}

// TransactionFilter: relatedId only combines with type, amount only with
// an operator ("gte" or "lte"); the service validates the combinations.
type TransactionFilter struct {
	Name        string   `query:"name"`
	CreatedBy   string   `query:"createdBy"`
	Suspicious  *bool    `query:"suspicious"`
	PromotionID *uint    `query:"promotionId"`
	Type        string   `query:"type"`
	RelatedID   *uint    `query:"relatedId"`
	Amount      *float64 `query:"amount"`
	Operator    string   `query:"operator"`
	Page        int      `query:"page"`
	Limit       int      `query:"limit"`
}

type TransactionResponse struct {
	ID           uint       `json:"id"`
	Utorid       string     `json:"utorid"`
	Type         string     `json:"type"`
	Spent        *float64   `json:"spent,omitempty"`
	Amount       int        `json:"amount"`
	Earned       *int       `json:"earned,omitempty"`
	Redeemed     *int       `json:"redeemed,omitempty"`
	RelatedID    *uint      `json:"relatedId,omitempty"`
	PromotionIDs []uint     `json:"promotionIds"`
	Suspicious   *bool      `json:"suspicious,omitempty"`
	Processed    *bool      `json:"processed,omitempty"`
	ProcessedBy  *string    `json:"processedBy,omitempty"`
	Remark       string     `json:"remark"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

type TransactionListResponse struct {
	Count   int64                 `json:"count"`
	Results []TransactionResponse `json:"results"`
}

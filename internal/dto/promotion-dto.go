package dto

type CreatePromotionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"` // "automatic" | "one-time"
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	MinSpending *float64 `json:"minSpending"`
	Rate        *float64 `json:"rate"`
	Points      *int     `json:"points"`
}

type UpdatePromotionRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	StartTime   *string  `json:"startTime"`
	EndTime     *string  `json:"endTime"`
	MinSpending *float64 `json:"minSpending"`
	Rate        *float64 `json:"rate"`
	Points      *int     `json:"points"`
}

type PromotionFilter struct {
	Name    string `query:"name"`
	Type    string `query:"type"`
	Started *bool  `query:"started"`
	Ended   *bool  `query:"ended"`
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
}

type PromotionResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime"`
	MinSpending *float64 `json:"minSpending"`
	Rate        *float64 `json:"rate"`
	Points      *int     `json:"points"`
}

type PromotionListResponse struct {
	Count   int64               `json:"count"`
	Results []PromotionResponse `json:"results"`
}

// PromotionSummary is the slim shape attached to user profiles: one-time
// promotions currently active that the user has not consumed yet.
type PromotionSummary struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MinSpending *float64 `json:"minSpending"`
	Rate        *float64 `json:"rate"`
	Points      *int     `json:"points"`
}

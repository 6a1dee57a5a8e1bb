package dto

// ── 学分上限 DTO ──

// UpsertCreditLimitRequest 设置学期学分上限
type UpsertCreditLimitRequest struct {
	MaxCredits int `json:"max_credits" binding:"min=1,max=60"`
}

// CreditLimitResponse 学期学分上限；未设置时 MaxCredits 为 null
type CreditLimitResponse struct {
	SemesterNumber int     `json:"semester_number"`
	MaxCredits     *int    `json:"max_credits"`
	UpdatedAt      *string `json:"updated_at,omitempty"`
}

package models

import (
	"time"
)

// Prompt represents one stored optimization result. Rows are write-once:
// they are never updated after creation, only deleted by their owner.
type Prompt struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"-" db:"user_id"`
	RawPrompt       string    `json:"raw_prompt" db:"raw_prompt"`
	OptimizedPrompt string    `json:"optimized_prompt" db:"optimized_prompt"`
	TokensUsed      int       `json:"tokens_used" db:"tokens_used"`
	Category        string    `json:"category" db:"optimization_type"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Optimization categories
const (
	CategoryGeneral     = "general"
	CategoryCoding      = "coding"
	CategoryCreative    = "creative"
	CategoryAnalysis    = "analysis"
	CategoryInstruction = "instruction"
)

// Categories lists the valid optimization categories in a stable order.
var Categories = []string{
	CategoryGeneral,
	CategoryCoding,
	CategoryCreative,
	CategoryAnalysis,
	CategoryInstruction,
}

// ValidCategory reports whether s is a known optimization category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

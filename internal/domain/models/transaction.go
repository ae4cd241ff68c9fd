package models

import "time"

// Transaction is immutable once saved. An empty ToUserID marks a bill
// payment, which has no receiving user.
type Transaction struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
}

package entity

import "time"

type StatusHistory struct {
	ID         string
	OrderID    string
	FromStatus *string
	ToStatus   string
	Actor      string
	Source     string
	Note       *string
	CreatedAt  time.Time
}

type AuditLog struct {
	ID        string
	Action    string
	OrderID   *string
	Actor     string
	Metadata  map[string]any
	CreatedAt time.Time
}

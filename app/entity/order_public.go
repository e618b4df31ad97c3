package entity

import "time"

// OrderPublic is the projection served to unauthenticated tracking lookups.
// It is keyed by tracking code and carries display metadata only.
type OrderPublic struct {
	TrackingCode    string
	OrderID         string
	Status          string
	PublicStepLabel string
	RecipientName   *string
	PrisonName      *string
	Label           *string
	CreatedAt       time.Time
	StatusUpdatedAt time.Time
}

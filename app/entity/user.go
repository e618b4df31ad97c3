package entity

import "time"

type UserProfile struct {
	UID         string
	DisplayName string
	Email       *string
	UpdatedAt   time.Time
}

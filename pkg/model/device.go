package model

import "time"

// Device is a model of the persistency layer
type Device struct {
	ID         int32
	Name       string
	MACAddress string
	UserID     int32
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

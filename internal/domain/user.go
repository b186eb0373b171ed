package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	PrimaryEmail string    `json:"primaryEmail"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

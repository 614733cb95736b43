package domain

import "time"

// User is the signed-in account owner. The mirror holds a single row.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	IsDeleted bool
}

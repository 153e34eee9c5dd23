package directory

import (
	"database/sql"
	"time"
)

type Employee struct {
	EmployeeID string
	FullName   string
	Email      sql.NullString
	Department sql.NullString
	IsActive   bool
	CreatedAt  time.Time
}

type Location struct {
	LocationID int64
	Name       string
	IsActive   bool
}

package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID        string
	Name      string
	Domain    sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID        uint
	TenantID  sql.NullString
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

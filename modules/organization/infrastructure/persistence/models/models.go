package models

import (
	"database/sql"
	"time"
)

type Organization struct {
	ID          string
	TenantID    sql.NullString
	ParentID    sql.NullString
	Type        string
	Name        string
	Code        string
	Description sql.NullString
	Status      string
	ManagerID   sql.NullInt64
	Metadata    []byte
	CreatedBy   uint
	UpdatedBy   sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   sql.NullTime
}

type OrganizationUser struct {
	ID             uint
	OrganizationID string
	UserID         uint
	Role           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

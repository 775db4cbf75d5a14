package mapping

import (
	"database/sql"

	"github.com/google/uuid"
)

func ValueToSQLNullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func PointerToSQLNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func SQLNullStringToPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func UUIDPointerToSQLNullString(value *uuid.UUID) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.String(), Valid: true}
}

func SQLNullStringToUUIDPointer(value sql.NullString) (*uuid.UUID, error) {
	if !value.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(value.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func PointerToSQLNullInt64(value *uint) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func SQLNullInt64ToUintPointer(value sql.NullInt64) *uint {
	if !value.Valid {
		return nil
	}
	v := uint(value.Int64)
	return &v
}

func Pointer[T any](v T) *T {
	return &v
}

package services

import (
	"errors"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/pkg/configuration"
	"github.com/litepie/organization/pkg/serrors"
)

type CreateOrganizationDTO struct {
	Name        string         `validate:"required,max=255"`
	Code        string         `validate:"required,max=64"`
	Type        string         `validate:"required"`
	Status      string         `validate:"omitempty"`
	ParentID    *uuid.UUID     `validate:"omitempty"`
	Description *string        `validate:"omitempty,max=2048"`
	ManagerID   *uint          `validate:"omitempty"`
	Metadata    map[string]any `validate:"omitempty"`
}

type UpdateOrganizationDTO struct {
	Name        *string        `validate:"omitempty,max=255"`
	Code        *string        `validate:"omitempty,max=64"`
	Type        *string        `validate:"omitempty"`
	Status      *string        `validate:"omitempty"`
	Description *string        `validate:"omitempty,max=2048"`
	ManagerID   *uint          `validate:"omitempty"`
	Metadata    map[string]any `validate:"omitempty"`
}

// validateEnums checks type and status against the configured
// enumerations. Empty status defaults to active.
func (d *CreateOrganizationDTO) validateEnums(cfg *configuration.OrganizationOptions) error {
	if !slices.Contains(cfg.Types, d.Type) {
		return ErrInvalidType.WithTemplateData(map[string]string{"Type": d.Type})
	}
	if d.Status != "" && !slices.Contains(cfg.Statuses, d.Status) {
		return ErrInvalidStatus.WithTemplateData(map[string]string{"Status": d.Status})
	}
	return nil
}

func (d *UpdateOrganizationDTO) validateEnums(cfg *configuration.OrganizationOptions) error {
	if d.Type != nil && !slices.Contains(cfg.Types, *d.Type) {
		return ErrInvalidType.WithTemplateData(map[string]string{"Type": *d.Type})
	}
	if d.Status != nil && !slices.Contains(cfg.Statuses, *d.Status) {
		return ErrInvalidStatus.WithTemplateData(map[string]string{"Status": *d.Status})
	}
	return nil
}

func (d *CreateOrganizationDTO) toEntity(tenantID *uuid.UUID, createdBy uint) *organization.Organization {
	status := organization.StatusActive
	if d.Status != "" {
		status = organization.Status(d.Status)
	}
	return organization.New(
		d.Name,
		d.Code,
		organization.Type(d.Type),
		organization.WithTenantID(tenantID),
		organization.WithParentID(d.ParentID),
		organization.WithStatus(status),
		organization.WithDescription(d.Description),
		organization.WithManagerID(d.ManagerID),
		organization.WithMetadata(d.Metadata),
		organization.WithCreatedBy(createdBy),
	)
}

func (d *UpdateOrganizationDTO) apply(entity *organization.Organization) {
	if d.Name != nil {
		entity.SetName(*d.Name)
	}
	if d.Code != nil {
		entity.SetCode(*d.Code)
	}
	if d.Type != nil {
		entity.SetType(organization.Type(*d.Type))
	}
	if d.Status != nil {
		entity.SetStatus(organization.Status(*d.Status))
	}
	if d.Description != nil {
		entity.SetDescription(d.Description)
	}
	if d.ManagerID != nil {
		entity.SetManagerID(d.ManagerID)
	}
	if d.Metadata != nil {
		entity.SetMetadata(d.Metadata)
	}
}

func fieldErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return serrors.NewValidationError("ORG_VALIDATION", "invalid organization payload", fields)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/templates"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
)

// TemplateService saves the current slot under a name and applies it back.
type TemplateService interface {
	// Save stores the slot's mode, subject or activity, hour, responsible
	// person and location. The date is not kept. Saving an existing name
	// replaces it.
	Save(ctx context.Context, name string, slot Slot) (models.Template, error)

	// Apply overlays the named template on slot. Hour, responsible and
	// location replace slot's values only when the template has them.
	Apply(ctx context.Context, name string, slot Slot) (Slot, error)

	List(ctx context.Context) ([]models.Template, error)
	Delete(ctx context.Context, name string) error
}

type templateService struct {
	repo templates.Repository
	log  logging.Logger
}

func NewTemplateService(repo templates.Repository, log logging.Logger) TemplateService {
	return &templateService{repo: repo, log: log}
}

func templateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: template name is required", common.ErrorValidation)
	}
	return name, nil
}

func (s *templateService) Save(ctx context.Context, name string, slot Slot) (models.Template, error) {
	name, err := templateName(name)
	if err != nil {
		return models.Template{}, err
	}
	if !slot.Mode.Valid() {
		return models.Template{}, fmt.Errorf("%w: unknown mode %q", common.ErrorValidation, slot.Mode)
	}

	t := models.Template{
		Name:        name,
		Mode:        slot.Mode,
		HourSlot:    slot.HourSlot,
		Responsible: strings.TrimSpace(slot.Responsible),
		Location:    strings.TrimSpace(slot.Location),
	}
	if t.Mode == models.ModeSubject {
		t.Subject = strings.TrimSpace(slot.Subject)
	} else {
		t.Activity = strings.TrimSpace(slot.Activity)
	}
	if t.HourSlot < 1 {
		t.HourSlot = 1
	}

	if err := s.repo.Upsert(ctx, t); err != nil {
		return models.Template{}, err
	}
	s.log.Info(ctx, "template saved", "name", t.Name, "mode", string(t.Mode))
	return t, nil
}

func (s *templateService) Apply(ctx context.Context, name string, slot Slot) (Slot, error) {
	name, err := templateName(name)
	if err != nil {
		return slot, err
	}
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return slot, err
	}

	slot.Mode = t.Mode
	switch t.Mode {
	case models.ModeSubject:
		slot.Subject = t.Subject
	case models.ModeActivity:
		slot.Activity = t.Activity
	}
	if t.HourSlot > 0 {
		slot.HourSlot = t.HourSlot
	}
	if t.Responsible != "" {
		slot.Responsible = t.Responsible
	}
	if t.Location != "" {
		slot.Location = t.Location
	}
	return slot, nil
}

func (s *templateService) List(ctx context.Context) ([]models.Template, error) {
	return s.repo.List(ctx)
}

func (s *templateService) Delete(ctx context.Context, name string) error {
	name, err := templateName(name)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.log.Info(ctx, "template deleted", "name", name)
	return nil
}

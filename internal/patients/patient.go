package patients

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidPatient  = errors.New("invalid patient")
)

type Unit string

const (
	UnitKg Unit = "kg"
	UnitLb Unit = "lb"
)

type Patient struct {
	ID        int               `json:"id"`
	FullName  string            `json:"fullName"`
	Unit      Unit              `json:"unit"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Validate trims the name and defaults the display unit to kilograms.
func (p *Patient) Validate() error {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return fmt.Errorf("%w: full name empty", ErrInvalidPatient)
	}

	switch p.Unit {
	case "":
		p.Unit = UnitKg
	case UnitKg, UnitLb:
	default:
		return fmt.Errorf("%w: unknown unit [%s]", ErrInvalidPatient, p.Unit)
	}

	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}

	return nil
}

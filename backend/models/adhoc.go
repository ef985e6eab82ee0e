package models

import (
	"fmt"
	"time"
)

// AdhocKind discriminates the value carried by an AdhocEntry.
type AdhocKind string

const (
	AdhocText   AdhocKind = "text"
	AdhocNumber AdhocKind = "number"
	AdhocFlag   AdhocKind = "flag"
	AdhocDate   AdhocKind = "date"
)

// AdhocEntry is one free-form attribute attached to a programme or enrolment.
// Exactly the value field named by Kind must be set.
type AdhocEntry struct {
	Key    string    `json:"key" validate:"required,max=64"`
	Kind   AdhocKind `json:"kind" validate:"required,oneof=text number flag date"`
	Text   *string   `json:"text,omitempty" validate:"omitempty,max=2000"`
	Number *float64  `json:"number,omitempty"`
	Flag   *bool     `json:"flag,omitempty"`
	Date   *string   `json:"date,omitempty"`
}

// Validate enforces the discriminator rules that struct tags cannot express.
func (e AdhocEntry) Validate() error {
	set := 0
	for _, present := range []bool{e.Text != nil, e.Number != nil, e.Flag != nil, e.Date != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("adhoc entry %q must carry exactly one value", e.Key)
	}

	switch e.Kind {
	case AdhocText:
		if e.Text == nil {
			return fmt.Errorf("adhoc entry %q of kind text needs a text value", e.Key)
		}
	case AdhocNumber:
		if e.Number == nil {
			return fmt.Errorf("adhoc entry %q of kind number needs a number value", e.Key)
		}
	case AdhocFlag:
		if e.Flag == nil {
			return fmt.Errorf("adhoc entry %q of kind flag needs a flag value", e.Key)
		}
	case AdhocDate:
		if e.Date == nil {
			return fmt.Errorf("adhoc entry %q of kind date needs a date value", e.Key)
		}
		if _, err := time.Parse(time.DateOnly, *e.Date); err != nil {
			return fmt.Errorf("adhoc entry %q has invalid date %q", e.Key, *e.Date)
		}
	default:
		return fmt.Errorf("adhoc entry %q has unknown kind %q", e.Key, e.Kind)
	}
	return nil
}

type AdhocData struct {
	Entries []AdhocEntry `json:"entries" validate:"dive"`
}

func (d AdhocData) Validate() error {
	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		if seen[e.Key] {
			return fmt.Errorf("duplicate adhoc key %q", e.Key)
		}
		seen[e.Key] = true
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type EmergencyContact struct {
	Name  string `json:"name" validate:"required_with=Phone,max=120"`
	Phone string `json:"phone" validate:"required_with=Name,max=40"`
}

type ContactInfo struct {
	Address   string            `json:"address,omitempty" validate:"max=200"`
	City      string            `json:"city,omitempty" validate:"max=100"`
	Postcode  string            `json:"postcode,omitempty" validate:"max=20"`
	Emergency *EmergencyContact `json:"emergency,omitempty"`
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"luigui/internal/core"
)

type WizardStep int

const (
	StepName WizardStep = iota + 1
	StepKind
	StepDetails
)

var ErrStepIncomplete = errors.New("fill in the required fields to continue")

// DatabaseSaver is the part of the gateway the wizard submits to.
type DatabaseSaver interface {
	CreateDatabase(ctx context.Context, p core.DatabasePayload) (*core.Database, error)
	UpdateDatabase(ctx context.Context, id int64, p core.DatabasePayload) (*core.Database, error)
}

// Wizard collects a database connection in three steps: name, kind, then
// the details of the chosen kind.
type Wizard struct {
	Step WizardStep

	Name     string
	Kind     core.ConnectionKind
	Host     string
	Port     string
	Username string
	Password string
	Schemas  string

	// EditingID is non-zero when the wizard edits an existing database.
	EditingID int64
}

func NewWizard() *Wizard {
	return &Wizard{Step: StepName}
}

// WizardFor starts an edit of db. The password is write-only and starts
// empty.
func WizardFor(db *core.Database) *Wizard {
	return &Wizard{
		Step:      StepName,
		Name:      db.Name,
		Kind:      db.Kind,
		Host:      db.Host,
		Port:      db.Port,
		Username:  db.Username,
		EditingID: db.ID,
	}
}

func (w *Wizard) IsEdit() bool { return w.EditingID != 0 }

// Required lists the fields the current step cannot leave blank.
func (w *Wizard) Required() []string {
	switch w.Step {
	case StepName:
		return []string{"name"}
	case StepKind:
		return []string{"kind"}
	case StepDetails:
		if w.Kind == core.KindDirect {
			if w.IsEdit() {
				return []string{"host", "port", "username"}
			}
			return []string{"host", "port", "username", "password"}
		}
		return []string{"schemas"}
	}
	return nil
}

// Field returns the current value of a named wizard field.
func (w *Wizard) Field(name string) string {
	switch name {
	case "name":
		return w.Name
	case "kind":
		if w.Kind.Valid() {
			return string(w.Kind)
		}
		return ""
	case "host":
		return w.Host
	case "port":
		return w.Port
	case "username":
		return w.Username
	case "password":
		return w.Password
	case "schemas":
		return w.Schemas
	}
	return ""
}

// NextDisabled reports whether any required field of the current step is
// empty or whitespace.
func (w *Wizard) NextDisabled() bool {
	for _, f := range w.Required() {
		if core.Blank(w.Field(f)) {
			return true
		}
	}
	return false
}

func (w *Wizard) IsLastStep() bool { return w.Step == StepDetails }

func (w *Wizard) Next() error {
	if w.NextDisabled() {
		return ErrStepIncomplete
	}
	if w.Step < StepDetails {
		w.Step++
	}
	return nil
}

// Back returns to the previous step. Leaving the details step forgets the
// password so it is never carried through the form.
func (w *Wizard) Back() {
	if w.Step == StepDetails {
		w.Password = ""
	}
	if w.Step > StepName {
		w.Step--
	}
}

// Payload assembles the body for the chosen kind. Fields belonging to the
// other kind are null.
func (w *Wizard) Payload() (core.DatabasePayload, error) {
	for _, step := range []WizardStep{StepName, StepKind, StepDetails} {
		check := *w
		check.Step = step
		if check.NextDisabled() {
			return core.DatabasePayload{}, ErrStepIncomplete
		}
	}

	name := strings.TrimSpace(w.Name)
	p := core.DatabasePayload{Name: name, Type: w.Kind.WireType()}

	if w.Kind == core.KindDirect {
		port := strings.TrimSpace(w.Port)
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return core.DatabasePayload{}, fmt.Errorf("invalid port %q", port)
		}
		host := strings.TrimSpace(w.Host)
		user := strings.TrimSpace(w.Username)
		p.Host, p.Port, p.Username, p.DBName = &host, &port, &user, &name
		if w.Password != "" {
			pw := w.Password
			p.Password = &pw
		}
		return p, nil
	}

	schemas := strings.TrimSpace(w.Schemas)
	if err := ValidateSchemaBlob(schemas); err != nil {
		return core.DatabasePayload{}, err
	}
	p.Schemas = &schemas
	return p, nil
}

// Submit creates the database, or updates it when editing.
func (w *Wizard) Submit(ctx context.Context, saver DatabaseSaver) (*core.Database, error) {
	p, err := w.Payload()
	if err != nil {
		return nil, err
	}
	if w.IsEdit() {
		return saver.UpdateDatabase(ctx, w.EditingID, p)
	}
	return saver.CreateDatabase(ctx, p)
}

// ValidateSchemaBlob checks that a pasted schema is the JSON array produced
// by the extraction script.
func ValidateSchemaBlob(blob string) error {
	var cols []SchemaColumn
	if err := json.Unmarshal([]byte(blob), &cols); err != nil {
		return fmt.Errorf("schema must be the JSON array produced by the extraction script: %w", err)
	}
	if len(cols) == 0 {
		return errors.New("schema is empty")
	}
	for i, c := range cols {
		if c.TableName == "" || c.ColumnName == "" {
			return fmt.Errorf("schema entry %d is missing table_name or column_name", i)
		}
	}
	return nil
}

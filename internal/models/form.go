package models

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

type FormStatus string

const (
	FormDraft     FormStatus = "DRAFT"
	FormPublished FormStatus = "PUBLISHED"
	FormArchived  FormStatus = "ARCHIVED"
)

func (s FormStatus) IsValid() bool {
	switch s {
	case FormDraft, FormPublished, FormArchived:
		return true
	}
	return false
}

type FieldType string

const (
	ShortText      FieldType = "SHORT_TEXT"
	LongText       FieldType = "LONG_TEXT"
	SingleChoice   FieldType = "SINGLE_CHOICE"
	MultipleChoice FieldType = "MULTIPLE_CHOICE"
)

func (t FieldType) IsValid() bool {
	switch t {
	case ShortText, LongText, SingleChoice, MultipleChoice:
		return true
	}
	return false
}

// IsChoice reports whether fields of this type carry options.
func (t FieldType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

type Form struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index"`
	Description string     `json:"description" gorm:"type:text"`
	Status      FormStatus `json:"status" gorm:"not null;default:DRAFT;index;size:20"`
	IsQuiz      bool       `json:"is_quiz" gorm:"not null;default:false"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Fields []FormField `json:"fields" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	FieldCount    int   `json:"field_count" gorm:"-"`
	ResponseCount int64 `json:"response_count" gorm:"-"`
}

// FormField ids are chosen by the author, so they are only unique within their form.
type FormField struct {
	FormID      uint      `json:"form_id" gorm:"primaryKey;autoIncrement:false"`
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Label       string    `json:"label" gorm:"type:text;not null"`
	Type        FieldType `json:"type" gorm:"not null;size:20"`
	Required    bool      `json:"required" gorm:"not null;default:false"`
	Placeholder *string   `json:"placeholder" gorm:"size:500"`
	Order       int       `json:"order" gorm:"column:position;not null"`

	Options []FormFieldOption `json:"options" gorm:"foreignKey:FormID,FieldID;references:FormID,ID;constraint:OnDelete:CASCADE"`
}

// FormFieldOption ids are only unique within their field, hence the composite key.
type FormFieldOption struct {
	FormID    uint   `json:"-" gorm:"primaryKey;autoIncrement:false"`
	FieldID   string `json:"-" gorm:"primaryKey;size:64"`
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	Text      string `json:"text" gorm:"type:text;not null"`
	IsCorrect bool   `json:"is_correct" gorm:"not null;default:false"`
	Points    int    `json:"points" gorm:"not null;default:0"`
	Position  int    `json:"-" gorm:"not null;default:0"`
}

func (Form) TableName() string {
	return "forms"
}

func (FormField) TableName() string {
	return "form_fields"
}

func (FormFieldOption) TableName() string {
	return "form_field_options"
}

// FieldByID returns a pointer into f.Fields, or nil.
func (f *Form) FieldByID(id string) *FormField {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

// SortedFields returns the fields in display order. The form itself is left untouched.
func (f *Form) SortedFields() []FormField {
	fields := make([]FormField, len(f.Fields))
	copy(fields, f.Fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})
	return fields
}

func (f *FormField) OptionByID(id string) *FormFieldOption {
	for i := range f.Options {
		if f.Options[i].ID == id {
			return &f.Options[i]
		}
	}
	return nil
}

// CorrectOption returns the first option flagged as correct, or nil.
func (f *FormField) CorrectOption() *FormFieldOption {
	for i := range f.Options {
		if f.Options[i].IsCorrect {
			return &f.Options[i]
		}
	}
	return nil
}

// ForRespondent strips answer keys so a published form can be handed to learners.
func (f Form) ForRespondent() Form {
	view := f.Clone()
	for i := range view.Fields {
		for j := range view.Fields[i].Options {
			view.Fields[i].Options[j].IsCorrect = false
			view.Fields[i].Options[j].Points = 0
		}
	}
	view.Fields = view.SortedFields()
	return view
}

// Validate checks the structural invariants of the schema. Scoring configuration is not
// checked: a quiz without any scored option is still a valid form.
func (f *Form) Validate() FormErrors {
	var errs FormErrors

	if !f.Status.IsValid() {
		errs = append(errs, FormError{Field: "status", Message: fmt.Sprintf("unknown status %q", f.Status)})
	}

	fieldIDs := make(map[string]bool, len(f.Fields))
	orders := make(map[int]string, len(f.Fields))
	for _, field := range f.Fields {
		if field.ID == "" {
			errs = append(errs, FormError{Field: "fields", Message: "field id is required"})
			continue
		}
		if fieldIDs[field.ID] {
			errs = append(errs, FormError{Field: field.ID, Message: "duplicate field id"})
		}
		fieldIDs[field.ID] = true

		if other, taken := orders[field.Order]; taken {
			errs = append(errs, FormError{Field: field.ID, Message: fmt.Sprintf("order %d already used by field %s", field.Order, other)})
		} else {
			orders[field.Order] = field.ID
		}

		errs = append(errs, field.validate()...)
	}

	return errs
}

func (f *FormField) validate() FormErrors {
	var errs FormErrors

	if !f.Type.IsValid() {
		return append(errs, FormError{Field: f.ID, Message: fmt.Sprintf("unknown field type %q", f.Type)})
	}

	if !f.Type.IsChoice() {
		if len(f.Options) > 0 {
			errs = append(errs, FormError{Field: f.ID, Message: "text fields cannot have options"})
		}
		return errs
	}

	if len(f.Options) == 0 {
		return append(errs, FormError{Field: f.ID, Message: "choice fields need at least one option"})
	}

	optionIDs := make(map[string]bool, len(f.Options))
	correct := 0
	for _, opt := range f.Options {
		switch {
		case opt.ID == "":
			errs = append(errs, FormError{Field: f.ID, Message: "option id is required"})
		case optionIDs[opt.ID]:
			errs = append(errs, FormError{Field: f.ID, Message: fmt.Sprintf("duplicate option id %s", opt.ID)})
		}
		optionIDs[opt.ID] = true

		if opt.Points < 0 {
			errs = append(errs, FormError{Field: f.ID, Message: fmt.Sprintf("option %s has negative points", opt.ID)})
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if f.Type == SingleChoice && correct != 1 {
		errs = append(errs, FormError{Field: f.ID, Message: fmt.Sprintf("single choice field needs exactly one correct option, has %d", correct)})
	}

	return errs
}

// FormError describes a structural problem with a form schema.
type FormError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FormErrors []FormError

func (fe FormErrors) Error() string {
	if len(fe) == 0 {
		return "invalid form"
	}
	if len(fe) == 1 {
		return fmt.Sprintf("invalid form: %s: %s", fe[0].Field, fe[0].Message)
	}
	return fmt.Sprintf("invalid form: %d problems, first: %s: %s", len(fe), fe[0].Field, fe[0].Message)
}

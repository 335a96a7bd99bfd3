package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const DefaultFieldLabel = "Untitled question"

var (
	ErrFieldNotFound         = errors.New("field not found")
	ErrOptionNotFound        = errors.New("option not found")
	ErrInvalidFieldType      = errors.New("invalid field type")
	ErrInvalidFormStatus     = errors.New("invalid form status")
	ErrInvalidReorder        = errors.New("reorder must list every field exactly once")
	ErrNotChoiceField        = errors.New("field does not take options")
	ErrLastOption            = errors.New("choice field must keep at least one option")
	ErrCorrectOptionRequired = errors.New("single choice field must keep a correct option")
	ErrNegativePoints        = errors.New("option points cannot be negative")
)

// IDGenerator produces identifiers for new fields and options.
type IDGenerator func() string

func (g IDGenerator) next() string {
	if g == nil {
		return uuid.NewString()
	}
	return g()
}

// FieldChanges holds the editable scalar attributes of a field. Nil members are left as is.
type FieldChanges struct {
	Label       *string
	Required    *bool
	Placeholder *string
}

// OptionChanges holds the editable attributes of an option. Nil members are left as is.
type OptionChanges struct {
	Text   *string
	Points *int
}

// The commands below never mutate their receiver. Each one works on a deep copy and hands it back.

func NewForm(title, description string) Form {
	return Form{
		Title:       title,
		Description: description,
		Status:      FormDraft,
		IsQuiz:      false,
		Fields:      []FormField{},
	}
}

// Clone returns a deep copy of the form, including fields and options.
func (f Form) Clone() Form {
	out := f
	if f.Fields == nil {
		return out
	}
	out.Fields = make([]FormField, len(f.Fields))
	for i, field := range f.Fields {
		out.Fields[i] = field.clone()
	}
	return out
}

func (f FormField) clone() FormField {
	out := f
	if f.Placeholder != nil {
		p := *f.Placeholder
		out.Placeholder = &p
	}
	if f.Options != nil {
		out.Options = make([]FormFieldOption, len(f.Options))
		copy(out.Options, f.Options)
	}
	return out
}

// AddField appends a blank field of the given type. Its order is the field count unless a
// deletion gap makes that slot taken, in which case it goes after the current maximum.
func (f Form) AddField(fieldType FieldType, ids IDGenerator) (Form, error) {
	if !fieldType.IsValid() {
		return f, fmt.Errorf("%w: %q", ErrInvalidFieldType, fieldType)
	}

	out := f.Clone()
	field := FormField{
		ID:       ids.next(),
		FormID:   f.ID,
		Label:    DefaultFieldLabel,
		Type:     fieldType,
		Required: false,
		Order:    out.nextOrder(),
	}
	if fieldType.IsChoice() {
		field.Options = defaultOptions(field.FormID, field.ID, ids)
	}

	out.Fields = append(out.Fields, field)
	return out, nil
}

func (f Form) nextOrder() int {
	order := len(f.Fields)
	maxOrder := -1
	taken := false
	for _, field := range f.Fields {
		if field.Order == order {
			taken = true
		}
		if field.Order > maxOrder {
			maxOrder = field.Order
		}
	}
	if taken {
		return maxOrder + 1
	}
	return order
}

func defaultOptions(formID uint, fieldID string, ids IDGenerator) []FormFieldOption {
	return []FormFieldOption{
		{FormID: formID, FieldID: fieldID, ID: ids.next(), Text: "Option 1", IsCorrect: false, Points: 0, Position: 0},
		{FormID: formID, FieldID: fieldID, ID: ids.next(), Text: "Option 2", IsCorrect: true, Points: 10, Position: 1},
	}
}

// DeleteField removes a field. Remaining fields keep their order values.
func (f Form) DeleteField(fieldID string) (Form, error) {
	idx := f.fieldIndex(fieldID)
	if idx < 0 {
		return f, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}

	out := f.Clone()
	out.Fields = append(out.Fields[:idx], out.Fields[idx+1:]...)
	return out, nil
}

// Reorder takes the complete list of field ids in their new display order.
func (f Form) Reorder(fieldIDs []string) (Form, error) {
	if len(fieldIDs) != len(f.Fields) {
		return f, fmt.Errorf("%w: got %d ids for %d fields", ErrInvalidReorder, len(fieldIDs), len(f.Fields))
	}

	position := make(map[string]int, len(fieldIDs))
	for i, id := range fieldIDs {
		if _, dup := position[id]; dup {
			return f, fmt.Errorf("%w: duplicate id %s", ErrInvalidReorder, id)
		}
		if f.fieldIndex(id) < 0 {
			return f, fmt.Errorf("%w: unknown id %s", ErrInvalidReorder, id)
		}
		position[id] = i
	}

	out := f.Clone()
	fields := make([]FormField, len(out.Fields))
	for _, field := range out.Fields {
		i := position[field.ID]
		field.Order = i
		fields[i] = field
	}
	out.Fields = fields
	return out, nil
}

// SetStatus moves the form to any known status. There is no enforced lifecycle.
func (f Form) SetStatus(status FormStatus) (Form, error) {
	if !status.IsValid() {
		return f, fmt.Errorf("%w: %q", ErrInvalidFormStatus, status)
	}
	out := f.Clone()
	out.Status = status
	return out, nil
}

// ToggleQuizMode switches scoring on or off. Existing options are not re-validated.
func (f Form) ToggleQuizMode(enabled bool) Form {
	out := f.Clone()
	out.IsQuiz = enabled
	return out
}

func (f Form) UpdateField(fieldID string, changes FieldChanges) (Form, error) {
	out := f.Clone()
	field := out.FieldByID(fieldID)
	if field == nil {
		return f, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}

	if changes.Label != nil {
		field.Label = *changes.Label
	}
	if changes.Required != nil {
		field.Required = *changes.Required
	}
	if changes.Placeholder != nil {
		if *changes.Placeholder == "" {
			field.Placeholder = nil
		} else {
			p := *changes.Placeholder
			field.Placeholder = &p
		}
	}
	return out, nil
}

// ChangeFieldType converts a field. Text to choice adds the default options, choice to text
// drops every option, and going from multiple to single choice keeps only the first correct mark.
func (f Form) ChangeFieldType(fieldID string, fieldType FieldType, ids IDGenerator) (Form, error) {
	if !fieldType.IsValid() {
		return f, fmt.Errorf("%w: %q", ErrInvalidFieldType, fieldType)
	}

	out := f.Clone()
	field := out.FieldByID(fieldID)
	if field == nil {
		return f, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}
	if field.Type == fieldType {
		return out, nil
	}

	switch {
	case !fieldType.IsChoice():
		field.Options = nil
	case !field.Type.IsChoice():
		field.Options = defaultOptions(field.FormID, field.ID, ids)
	case fieldType == SingleChoice:
		normalizeSingleCorrect(field)
	}
	field.Type = fieldType
	return out, nil
}

func normalizeSingleCorrect(field *FormField) {
	seen := false
	for i := range field.Options {
		if field.Options[i].IsCorrect {
			if seen {
				field.Options[i].IsCorrect = false
			}
			seen = true
		}
	}
	if !seen && len(field.Options) > 0 {
		field.Options[0].IsCorrect = true
	}
}

// AddOption appends an incorrect, zero point option to a choice field.
func (f Form) AddOption(fieldID, text string, ids IDGenerator) (Form, string, error) {
	out := f.Clone()
	field := out.FieldByID(fieldID)
	if field == nil {
		return f, "", fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}
	if !field.Type.IsChoice() {
		return f, "", fmt.Errorf("%w: %s", ErrNotChoiceField, fieldID)
	}

	if text == "" {
		text = fmt.Sprintf("Option %d", len(field.Options)+1)
	}
	position := 0
	for _, opt := range field.Options {
		if opt.Position >= position {
			position = opt.Position + 1
		}
	}

	option := FormFieldOption{FormID: field.FormID, FieldID: field.ID, ID: ids.next(), Text: text, Position: position}
	field.Options = append(field.Options, option)
	return out, option.ID, nil
}

func (f Form) UpdateOption(fieldID, optionID string, changes OptionChanges) (Form, error) {
	out := f.Clone()
	_, option, err := out.locateOption(fieldID, optionID)
	if err != nil {
		return f, err
	}

	if changes.Text != nil {
		option.Text = *changes.Text
	}
	if changes.Points != nil {
		if *changes.Points < 0 {
			return f, fmt.Errorf("%w: option %s", ErrNegativePoints, optionID)
		}
		option.Points = *changes.Points
	}
	return out, nil
}

// RemoveOption drops an option. When the correct option of a single choice field goes, the
// first remaining option becomes correct.
func (f Form) RemoveOption(fieldID, optionID string) (Form, error) {
	out := f.Clone()
	field, option, err := out.locateOption(fieldID, optionID)
	if err != nil {
		return f, err
	}
	if len(field.Options) == 1 {
		return f, fmt.Errorf("%w: %s", ErrLastOption, fieldID)
	}

	wasCorrect := option.IsCorrect
	kept := field.Options[:0]
	for _, opt := range field.Options {
		if opt.ID != optionID {
			kept = append(kept, opt)
		}
	}
	field.Options = kept

	if wasCorrect && field.Type == SingleChoice {
		field.Options[0].IsCorrect = true
	}
	return out, nil
}

// SetOptionCorrect marks or unmarks an option. On a single choice field marking one option
// clears the others, and the only correct option cannot be unmarked.
func (f Form) SetOptionCorrect(fieldID, optionID string, correct bool) (Form, error) {
	out := f.Clone()
	field, option, err := out.locateOption(fieldID, optionID)
	if err != nil {
		return f, err
	}

	if field.Type == SingleChoice {
		if !correct {
			if option.IsCorrect {
				return f, fmt.Errorf("%w: %s", ErrCorrectOptionRequired, fieldID)
			}
			return out, nil
		}
		for i := range field.Options {
			field.Options[i].IsCorrect = field.Options[i].ID == optionID
		}
		return out, nil
	}

	option.IsCorrect = correct
	return out, nil
}

func (f *Form) fieldIndex(fieldID string) int {
	for i := range f.Fields {
		if f.Fields[i].ID == fieldID {
			return i
		}
	}
	return -1
}

func (f *Form) locateOption(fieldID, optionID string) (*FormField, *FormFieldOption, error) {
	field := f.FieldByID(fieldID)
	if field == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
	}
	if !field.Type.IsChoice() {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotChoiceField, fieldID)
	}
	option := field.OptionByID(optionID)
	if option == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrOptionNotFound, optionID)
	}
	return field, option, nil
}

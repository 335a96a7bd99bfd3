package models

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func counterIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("g%d", n)
	}
}

func sampleForm() Form {
	return Form{
		ID:     7,
		Title:  "Sample",
		Status: FormDraft,
		Fields: []FormField{
			{ID: "f1", Type: ShortText, Order: 0},
			{ID: "f2", Type: SingleChoice, Order: 1, Options: []FormFieldOption{
				{FieldID: "f2", ID: "o1", Text: "A", IsCorrect: true, Points: 10},
				{FieldID: "f2", ID: "o2", Text: "B", Position: 1},
			}},
			{ID: "f3", Type: MultipleChoice, Order: 2, Options: []FormFieldOption{
				{FieldID: "f3", ID: "o1", Text: "X", IsCorrect: true},
				{FieldID: "f3", ID: "o2", Text: "Y", IsCorrect: true, Position: 1},
			}},
		},
	}
}

func TestNewForm(t *testing.T) {
	f := NewForm("Title", "Desc")
	if f.Status != FormDraft || f.IsQuiz || len(f.Fields) != 0 || f.Fields == nil {
		t.Errorf("NewForm() = %+v", f)
	}
}

func TestForm_AddField(t *testing.T) {
	tests := []struct {
		name        string
		fieldType   FieldType
		wantOptions int
		wantErr     error
	}{
		{name: "short text", fieldType: ShortText},
		{name: "long text", fieldType: LongText},
		{name: "single choice", fieldType: SingleChoice, wantOptions: 2},
		{name: "multiple choice", fieldType: MultipleChoice, wantOptions: 2},
		{name: "unknown", fieldType: "DATE", wantErr: ErrInvalidFieldType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := sampleForm()
			got, err := form.AddField(tt.fieldType, counterIDs())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddField() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddField() error = %v", err)
			}

			if len(got.Fields) != 4 || len(form.Fields) != 3 {
				t.Fatalf("AddField() fields = %d, receiver = %d", len(got.Fields), len(form.Fields))
			}
			added := got.Fields[3]
			if added.ID != "g1" || added.Order != 3 || added.Label != DefaultFieldLabel || added.Required || added.FormID != 7 {
				t.Errorf("AddField() added = %+v", added)
			}
			if len(added.Options) != tt.wantOptions {
				t.Fatalf("options = %d, want %d", len(added.Options), tt.wantOptions)
			}
			if tt.wantOptions > 0 {
				if c := added.CorrectOption(); c == nil || c.Text != "Option 2" || c.Points != 10 {
					t.Errorf("default correct option = %+v", c)
				}
			}
			if problems := got.Validate(); len(problems) > 0 {
				t.Errorf("Validate() after AddField = %v", problems)
			}
		})
	}
}

func TestForm_AddFieldAfterDeletionGap(t *testing.T) {
	form, err := sampleForm().DeleteField("f1")
	if err != nil {
		t.Fatalf("DeleteField() error = %v", err)
	}
	// remaining orders are 1 and 2; slot 2 is taken so the new field goes to 3
	got, err := form.AddField(ShortText, counterIDs())
	if err != nil {
		t.Fatalf("AddField() error = %v", err)
	}
	if order := got.Fields[len(got.Fields)-1].Order; order != 3 {
		t.Errorf("order = %d, want 3", order)
	}
}

func TestForm_DeleteField(t *testing.T) {
	form := sampleForm()

	got, err := form.DeleteField("f2")
	if err != nil {
		t.Fatalf("DeleteField() error = %v", err)
	}
	if len(got.Fields) != 2 || got.Fields[0].Order != 0 || got.Fields[1].Order != 2 {
		t.Errorf("DeleteField() = %+v", got.Fields)
	}
	if len(form.Fields) != 3 || form.Fields[1].ID != "f2" {
		t.Error("DeleteField() changed the receiver")
	}

	if _, err := form.DeleteField("nope"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("DeleteField(nope) error = %v", err)
	}
}

func TestForm_Reorder(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		want    []string
		wantErr bool
	}{
		{name: "reverse", ids: []string{"f3", "f2", "f1"}, want: []string{"f3", "f2", "f1"}},
		{name: "same order", ids: []string{"f1", "f2", "f3"}, want: []string{"f1", "f2", "f3"}},
		{name: "missing id", ids: []string{"f1", "f2"}, wantErr: true},
		{name: "duplicate id", ids: []string{"f1", "f1", "f2"}, wantErr: true},
		{name: "unknown id", ids: []string{"f1", "f2", "f9"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sampleForm().Reorder(tt.ids)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReorder) {
					t.Errorf("Reorder() error = %v, want ErrInvalidReorder", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reorder() error = %v", err)
			}
			for i, field := range got.SortedFields() {
				if field.ID != tt.want[i] || field.Order != i {
					t.Errorf("position %d = %s (order %d), want %s", i, field.ID, field.Order, tt.want[i])
				}
			}
		})
	}
}

func TestForm_SetStatus(t *testing.T) {
	form := sampleForm()

	// no lifecycle is enforced
	for _, status := range []FormStatus{FormPublished, FormArchived, FormDraft} {
		next, err := form.SetStatus(status)
		if err != nil || next.Status != status {
			t.Errorf("SetStatus(%s) = %s, %v", status, next.Status, err)
		}
		form = next
	}

	if _, err := form.SetStatus("CLOSED"); !errors.Is(err, ErrInvalidFormStatus) {
		t.Errorf("SetStatus(CLOSED) error = %v", err)
	}
}

func TestForm_ToggleQuizMode(t *testing.T) {
	form := sampleForm()
	on := form.ToggleQuizMode(true)
	if !on.IsQuiz || form.IsQuiz {
		t.Errorf("ToggleQuizMode(true) = %v, receiver = %v", on.IsQuiz, form.IsQuiz)
	}
	if !reflect.DeepEqual(on.Fields, form.Fields) {
		t.Error("ToggleQuizMode() changed the fields")
	}
	if off := on.ToggleQuizMode(false); off.IsQuiz {
		t.Error("ToggleQuizMode(false) left quiz mode on")
	}
}

func TestForm_ChangeFieldType(t *testing.T) {
	tests := []struct {
		name    string
		fieldID string
		to      FieldType
		check   func(t *testing.T, f *FormField)
	}{
		{
			name: "text to single choice adds default options", fieldID: "f1", to: SingleChoice,
			check: func(t *testing.T, f *FormField) {
				if len(f.Options) != 2 || f.CorrectOption() == nil {
					t.Errorf("options = %+v", f.Options)
				}
			},
		},
		{
			name: "choice to text drops options", fieldID: "f2", to: LongText,
			check: func(t *testing.T, f *FormField) {
				if len(f.Options) != 0 {
					t.Errorf("options = %+v", f.Options)
				}
			},
		},
		{
			name: "multiple to single keeps one correct mark", fieldID: "f3", to: SingleChoice,
			check: func(t *testing.T, f *FormField) {
				if !f.Options[0].IsCorrect || f.Options[1].IsCorrect {
					t.Errorf("options = %+v", f.Options)
				}
			},
		},
		{
			name: "single to multiple keeps options", fieldID: "f2", to: MultipleChoice,
			check: func(t *testing.T, f *FormField) {
				if len(f.Options) != 2 || !f.Options[0].IsCorrect {
					t.Errorf("options = %+v", f.Options)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sampleForm().ChangeFieldType(tt.fieldID, tt.to, counterIDs())
			if err != nil {
				t.Fatalf("ChangeFieldType() error = %v", err)
			}
			field := got.FieldByID(tt.fieldID)
			if field.Type != tt.to {
				t.Errorf("type = %s, want %s", field.Type, tt.to)
			}
			tt.check(t, field)
			if problems := got.Validate(); len(problems) > 0 {
				t.Errorf("Validate() = %v", problems)
			}
		})
	}
}

func TestForm_Options(t *testing.T) {
	form := sampleForm()

	t.Run("add", func(t *testing.T) {
		got, id, err := form.AddOption("f2", "", counterIDs())
		if err != nil {
			t.Fatalf("AddOption() error = %v", err)
		}
		opt := got.FieldByID("f2").OptionByID(id)
		if opt == nil || opt.Text != "Option 3" || opt.IsCorrect || opt.Points != 0 || opt.Position != 2 {
			t.Errorf("added option = %+v", opt)
		}
		if _, _, err := form.AddOption("f1", "x", counterIDs()); !errors.Is(err, ErrNotChoiceField) {
			t.Errorf("AddOption(text field) error = %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		text, points := "Renamed", 4
		got, err := form.UpdateOption("f2", "o2", OptionChanges{Text: &text, Points: &points})
		if err != nil {
			t.Fatalf("UpdateOption() error = %v", err)
		}
		if opt := got.FieldByID("f2").OptionByID("o2"); opt.Text != text || opt.Points != 4 {
			t.Errorf("updated option = %+v", opt)
		}
		negative := -1
		if _, err := form.UpdateOption("f2", "o2", OptionChanges{Points: &negative}); !errors.Is(err, ErrNegativePoints) {
			t.Errorf("UpdateOption(-1) error = %v", err)
		}
		if _, err := form.UpdateOption("f2", "o9", OptionChanges{}); !errors.Is(err, ErrOptionNotFound) {
			t.Errorf("UpdateOption(o9) error = %v", err)
		}
	})

	t.Run("remove the correct option", func(t *testing.T) {
		got, err := form.RemoveOption("f2", "o1")
		if err != nil {
			t.Fatalf("RemoveOption() error = %v", err)
		}
		field := got.FieldByID("f2")
		if len(field.Options) != 1 || !field.Options[0].IsCorrect {
			t.Errorf("options = %+v", field.Options)
		}
		if _, err := got.RemoveOption("f2", "o2"); !errors.Is(err, ErrLastOption) {
			t.Errorf("RemoveOption(last) error = %v", err)
		}
		if len(form.FieldByID("f2").Options) != 2 {
			t.Error("RemoveOption() changed the receiver")
		}
	})

	t.Run("set correct", func(t *testing.T) {
		got, err := form.SetOptionCorrect("f2", "o2", true)
		if err != nil {
			t.Fatalf("SetOptionCorrect() error = %v", err)
		}
		if c := got.FieldByID("f2").CorrectOption(); c.ID != "o2" {
			t.Errorf("correct = %s, want o2", c.ID)
		}
		if _, err := form.SetOptionCorrect("f2", "o1", false); !errors.Is(err, ErrCorrectOptionRequired) {
			t.Errorf("SetOptionCorrect(o1, false) error = %v", err)
		}

		got, err = form.SetOptionCorrect("f3", "o1", false)
		if err != nil {
			t.Fatalf("SetOptionCorrect() error = %v", err)
		}
		if f := got.FieldByID("f3"); f.Options[0].IsCorrect || !f.Options[1].IsCorrect {
			t.Errorf("multiple choice options = %+v", f.Options)
		}
	})
}

func TestForm_UpdateField(t *testing.T) {
	label, required, empty := "Name", true, ""
	form := sampleForm()
	p := "type here"
	form.Fields[0].Placeholder = &p

	got, err := form.UpdateField("f1", FieldChanges{Label: &label, Required: &required, Placeholder: &empty})
	if err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	field := got.FieldByID("f1")
	if field.Label != label || !field.Required || field.Placeholder != nil {
		t.Errorf("UpdateField() = %+v", field)
	}
	if form.Fields[0].Placeholder == nil || *form.Fields[0].Placeholder != p {
		t.Error("UpdateField() changed the receiver")
	}
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
		want   int
	}{
		{name: "valid", mutate: func(f *Form) {}, want: 0},
		{name: "duplicate order", mutate: func(f *Form) { f.Fields[1].Order = 0 }, want: 1},
		{name: "duplicate field id", mutate: func(f *Form) { f.Fields[1].ID = "f1"; f.Fields[1].Type = ShortText; f.Fields[1].Options = nil }, want: 1},
		{name: "text field with options", mutate: func(f *Form) { f.Fields[0].Options = []FormFieldOption{{ID: "x"}} }, want: 1},
		{name: "single choice with two correct", mutate: func(f *Form) { f.Fields[1].Options[1].IsCorrect = true }, want: 1},
		{name: "negative points", mutate: func(f *Form) { f.Fields[2].Options[0].Points = -2 }, want: 1},
		{name: "unknown status", mutate: func(f *Form) { f.Status = "LIVE" }, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := sampleForm()
			tt.mutate(&form)
			if got := form.Validate(); len(got) != tt.want {
				t.Errorf("Validate() = %v, want %d problems", got, tt.want)
			}
		})
	}
}

func TestForm_ForRespondent(t *testing.T) {
	form := sampleForm()
	form.Fields[0], form.Fields[2] = form.Fields[2], form.Fields[0]

	view := form.ForRespondent()
	if view.Fields[0].ID != "f1" {
		t.Errorf("fields not in display order: %s first", view.Fields[0].ID)
	}
	for _, field := range view.Fields {
		for _, opt := range field.Options {
			if opt.IsCorrect || opt.Points != 0 {
				t.Errorf("option %s/%s leaks scoring", field.ID, opt.ID)
			}
		}
	}
	if form.FieldByID("f2").CorrectOption() == nil {
		t.Error("ForRespondent() changed the receiver")
	}
}

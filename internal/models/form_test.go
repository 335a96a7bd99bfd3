package models

import (
	"reflect"
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestFormFieldKeys(t *testing.T) {
	fieldSchema, err := schema.Parse(&FormField{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}

	// Two forms may both use a field called q1
	if got := fieldSchema.PrimaryFieldDBNames; !reflect.DeepEqual(got, []string{"form_id", "id"}) {
		t.Errorf("form_fields primary key = %v, want [form_id id]", got)
	}
	if fieldSchema.LookUpField("form_id").AutoIncrement {
		t.Error("form_id must not auto increment")
	}

	options, ok := fieldSchema.Relationships.Relations["Options"]
	if !ok {
		t.Fatal("FormField.Options relation not found")
	}
	var foreign, primary []string
	for _, ref := range options.References {
		foreign = append(foreign, ref.ForeignKey.DBName)
		primary = append(primary, ref.PrimaryKey.DBName)
	}
	if !reflect.DeepEqual(foreign, []string{"form_id", "field_id"}) || !reflect.DeepEqual(primary, []string{"form_id", "id"}) {
		t.Errorf("options reference (%v) -> (%v), want (form_id field_id) -> (form_id id)", foreign, primary)
	}

	optionSchema, err := schema.Parse(&FormFieldOption{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse() error = %v", err)
	}
	if got := optionSchema.PrimaryFieldDBNames; !reflect.DeepEqual(got, []string{"form_id", "field_id", "id"}) {
		t.Errorf("form_field_options primary key = %v, want [form_id field_id id]", got)
	}
}

func TestBuilderOptionsCarryFormID(t *testing.T) {
	form := sampleForm()

	added, err := form.AddField(SingleChoice, counterIDs())
	if err != nil {
		t.Fatalf("AddField() error = %v", err)
	}
	field := added.Fields[len(added.Fields)-1]
	for _, opt := range field.Options {
		if opt.FormID != 7 || opt.FieldID != field.ID {
			t.Errorf("default option keyed (%d, %s), want (7, %s)", opt.FormID, opt.FieldID, field.ID)
		}
	}
}

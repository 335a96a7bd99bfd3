package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type answerKind uint8

const (
	answerEmpty answerKind = iota
	answerText
	answerChoices
)

// AnswerValue is what a respondent supplied for one field: a single string (text, or an option
// id for single choice), a list of option ids (multiple choice), or nothing.
type AnswerValue struct {
	kind    answerKind
	text    string
	choices []string
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{kind: answerText, text: s}
}

func ChoicesAnswer(ids ...string) AnswerValue {
	c := make([]string, len(ids))
	copy(c, ids)
	return AnswerValue{kind: answerChoices, choices: c}
}

func (a AnswerValue) IsText() bool    { return a.kind == answerText }
func (a AnswerValue) IsChoices() bool { return a.kind == answerChoices }

// Text returns the string form of the answer and whether it was a string at all.
func (a AnswerValue) Text() (string, bool) {
	return a.text, a.kind == answerText
}

// Choices returns a copy of the selected ids and whether the answer was a list.
func (a AnswerValue) Choices() ([]string, bool) {
	if a.kind != answerChoices {
		return nil, false
	}
	c := make([]string, len(a.choices))
	copy(c, a.choices)
	return c, true
}

// IsBlank reports whether the answer counts as missing for a required field:
// absent, whitespace only, or an empty list.
func (a AnswerValue) IsBlank() bool {
	switch a.kind {
	case answerText:
		return strings.TrimSpace(a.text) == ""
	case answerChoices:
		return len(a.choices) == 0
	}
	return true
}

func (a AnswerValue) clone() AnswerValue {
	if a.kind == answerChoices {
		return ChoicesAnswer(a.choices...)
	}
	return a
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case answerText:
		return json.Marshal(a.text)
	case answerChoices:
		if a.choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.choices)
	}
	return []byte("null"), nil
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = AnswerValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	case '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("answer list must contain only strings: %w", err)
		}
		*a = ChoicesAnswer(ids...)
		return nil
	}
	return fmt.Errorf("answer must be a string, a list of strings or null")
}

func (a AnswerValue) String() string {
	switch a.kind {
	case answerText:
		return a.text
	case answerChoices:
		return strings.Join(a.choices, ", ")
	}
	return ""
}

// Answers maps field ids to the respondent's values.
type Answers map[string]AnswerValue

// Clone returns a deep copy; nil stays nil.
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v.clone()
	}
	return out
}

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Submission is the result of processing a respondent's answers against a form.
// Score is nil when the form is not a quiz.
type Submission struct {
	FormID       uint      `json:"form_id"`
	RespondentID *string   `json:"respondent_id"`
	Answers      Answers   `json:"answers"`
	Score        *float64  `json:"score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// SubmissionRecord is the stored form of a Submission.
type SubmissionRecord struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	FormID       uint           `json:"form_id" gorm:"not null;index"`
	RespondentID *string        `json:"respondent_id" gorm:"size:255;index"`
	Answers      datatypes.JSON `json:"answers" gorm:"type:jsonb;not null"`
	Score        *float64       `json:"score"`
	SubmittedAt  time.Time      `json:"submitted_at" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Form       Form  `json:"-" gorm:"foreignKey:FormID"`
	Respondent *User `json:"respondent,omitempty" gorm:"-"`
}

func (SubmissionRecord) TableName() string {
	return "form_responses"
}

func NewSubmissionRecord(s *Submission) (*SubmissionRecord, error) {
	answers := s.Answers
	if answers == nil {
		answers = Answers{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	return &SubmissionRecord{
		FormID:       s.FormID,
		RespondentID: s.RespondentID,
		Answers:      datatypes.JSON(raw),
		Score:        s.Score,
		SubmittedAt:  s.SubmittedAt,
	}, nil
}

// DecodeAnswers parses the stored answers back into their typed form.
func (r *SubmissionRecord) DecodeAnswers() (Answers, error) {
	answers := Answers{}
	if len(r.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers of response %d: %w", r.ID, err)
	}
	return answers, nil
}

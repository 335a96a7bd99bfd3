package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	responsesSheet = "Responses"
	summarySheet   = "Summary"
)

// Export renders every response of a form as an xlsx workbook: one row per response on the
// first sheet, option statistics on the second.
func (s *submissionService) Export(ctx context.Context, formID uint, userID string) (*ExportFile, error) {
	form, err := s.requireManage(ctx, formID, userID, "export responses of")
	if err != nil {
		return nil, err
	}

	results, records, err := s.buildResults(ctx, form)
	if err != nil {
		return nil, err
	}

	data, err := renderWorkbook(form, records, results)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Responses exported", "form_id", formID, "rows", len(records), "user_id", userID)

	return &ExportFile{
		FileName:    fmt.Sprintf("form-%d-responses.xlsx", formID),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func renderWorkbook(form *models.Form, records []*models.SubmissionRecord, results *models.FormResults) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", responsesSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	fields := form.SortedFields()

	header := []interface{}{"Response ID", "Respondent", "Submitted At"}
	if form.IsQuiz {
		header = append(header, "Score")
	}
	for _, field := range fields {
		header = append(header, field.Label)
	}
	if err := writeRow(f, responsesSheet, 1, header, headerStyle); err != nil {
		return nil, err
	}

	for i, record := range records {
		answers, err := record.DecodeAnswers()
		if err != nil {
			return nil, err
		}

		respondent := "anonymous"
		if record.RespondentID != nil {
			respondent = *record.RespondentID
		}
		row := []interface{}{record.ID, respondent, record.SubmittedAt.UTC().Format(time.RFC3339)}
		if form.IsQuiz {
			if record.Score != nil {
				row = append(row, *record.Score)
			} else {
				row = append(row, "")
			}
		}
		for _, field := range fields {
			row = append(row, answerCell(&field, answers[field.ID]))
		}
		if err := writeRow(f, responsesSheet, i+2, row, 0); err != nil {
			return nil, err
		}
	}

	summaryRow := 1
	if err := writeRow(f, summarySheet, summaryRow, []interface{}{"Field", "Option", "Correct", "Selections", "Rate (%)"}, headerStyle); err != nil {
		return nil, err
	}
	for _, field := range results.Fields {
		for _, opt := range field.Options {
			summaryRow++
			row := []interface{}{field.Label, opt.OptionText, strconv.FormatBool(opt.IsCorrect), opt.SelectionCount, opt.SelectionRate}
			if err := writeRow(f, summarySheet, summaryRow, row, 0); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	if style != 0 {
		if err := f.SetRowStyle(sheet, row, row, style); err != nil {
			return fmt.Errorf("failed to style %s row %d: %w", sheet, row, err)
		}
	}
	return nil
}

// answerCell shows option text instead of option ids
func answerCell(field *models.FormField, answer models.AnswerValue) string {
	if !field.Type.IsChoice() {
		return answer.String()
	}

	ids, ok := answer.Choices()
	if !ok {
		if id, isText := answer.Text(); isText {
			ids = []string{id}
		}
	}

	out := ""
	for i, id := range ids {
		text := id
		if opt := field.OptionByID(id); opt != nil {
			text = opt.Text
		}
		if i > 0 {
			out += ", "
		}
		out += text
	}
	return out
}

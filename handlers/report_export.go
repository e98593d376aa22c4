// handlers/report_export.go
package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"p9e.in/towerops/config"
	"p9e.in/towerops/models"
)

// answerRow is one exported line: a field with its resolved value and the
// equipment dimensions it was recorded against.
type answerRow struct {
	FieldName string
	FieldType string
	Value     interface{}
	Comment   string
	Author    string
	Updated   time.Time
}

// ExportTaskToExcel downloads every answered field of a task as a
// spreadsheet, one row per answer tuple.
func ExportTaskToExcel(w http.ResponseWriter, r *http.Request) {
	job, task, rows, ok := collectTaskAnswers(w, r)
	if !ok {
		return
	}

	f, err := createAnswerWorkbook(job, task, rows)
	if err != nil {
		http.Error(w, "failed to generate workbook", http.StatusInternalServerError)
		return
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		http.Error(w, "failed to write workbook", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", sanitizeFilename(task.Name), time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// ExportTaskToCSV is the plain-text variant of the task export.
func ExportTaskToCSV(w http.ResponseWriter, r *http.Request) {
	_, task, rows, ok := collectTaskAnswers(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Write([]string{"Field", "Type", "Value", "Comment", "Author", "Updated"})
	for _, row := range rows {
		writer.Write([]string{
			row.FieldName,
			row.FieldType,
			fmt.Sprintf("%v", row.Value),
			row.Comment,
			row.Author,
			row.Updated.Format("2006-01-02 15:04"),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		http.Error(w, "failed to write CSV", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", sanitizeFilename(task.Name), time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// collectTaskAnswers resolves every field reachable from the task's form
// and pairs it with its winning answer. Unanswered fields are skipped.
func collectTaskAnswers(w http.ResponseWriter, r *http.Request) (*models.Job, *models.Task, []answerRow, bool) {
	jobID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	job, err := companyJob(r, jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return nil, nil, nil, false
	}
	var task models.Task
	if err := config.DB.First(&task, "id = ?", taskID).Error; err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return nil, nil, nil, false
	}
	form, err := task.Form(config.DB)
	if err != nil {
		http.Error(w, "task form not found", http.StatusNotFound)
		return nil, nil, nil, false
	}

	fieldIDs, err := form.AllSubFieldIDs(config.DB)
	if err != nil {
		http.Error(w, "failed to collect fields", http.StatusInternalServerError)
		return nil, nil, nil, false
	}

	units := renderUnits(job)

	var rows []answerRow
	for _, fieldID := range fieldIDs {
		var field models.Field
		if err := config.DB.First(&field, "id = ?", fieldID).Error; err != nil {
			continue
		}

		var answers []models.Answer
		err := config.DB.Where("job_id = ? AND task_id = ? AND field_id = ?", job.ID, task.ID, fieldID).
			Order("updated_at desc").
			Find(&answers).Error
		if err != nil {
			http.Error(w, "failed to fetch answers", http.StatusInternalServerError)
			return nil, nil, nil, false
		}

		// one row per equipment tuple; the newest answer per tuple wins
		seen := map[models.AnswerKey]bool{}
		for i := range answers {
			a := &answers[i]
			tuple := models.AnswerKey{
				AntennaID:   a.AntennaID,
				PortID:      a.PortID,
				RadioID:     a.RadioID,
				MicrowaveID: a.MicrowaveID,
				FwaID:       a.FwaID,
			}
			if seen[tuple] {
				continue
			}
			seen[tuple] = true

			author := ""
			var user models.User
			if err := config.DB.First(&user, "id = ?", a.UserID).Error; err == nil {
				author = user.Name
			}

			rows = append(rows, answerRow{
				FieldName: field.Name,
				FieldType: field.Type(),
				Value:     field.Value(config.DB, a, units),
				Comment:   a.Comment,
				Author:    author,
				Updated:   a.UpdatedAt,
			})
		}
	}

	return job, &task, rows, true
}

func createAnswerWorkbook(job *models.Job, task *models.Task, rows []answerRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Answers"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", job.Name, task.Name))
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)

	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	headers := []string{"Field", "Type", "Value", "Comment", "Author", "Updated"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, row := range rows {
		rowNum := i + 5
		values := []interface{}{
			row.FieldName,
			row.FieldType,
			fmt.Sprintf("%v", row.Value),
			row.Comment,
			row.Author,
			row.Updated.Format("2006-01-02 15:04"),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "C", "D", 40)
	f.SetColWidth(sheetName, "E", "F", 20)

	return f, nil
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return replacer.Replace(name)
}

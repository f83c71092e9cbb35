package exam

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	csvImportMinColumns = 8
	utf8BOM             = "\ufeff"
)

var ScoreExportHeader = []string{
	"Date",
	"Exam Type",
	"Total Score (%)",
	"Correct Answers",
	"Total Questions",
	"Time Spent (min)",
}

// ImportResult is the tally of a CSV import.
type ImportResult struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// RowError describes one skipped CSV line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ErrEmptyCSV is returned when an upload holds no records at all, not even
// a header.
var ErrEmptyCSV = errors.New("csv has no records")

// ParseQuestionsCSV reads the import format
//
//	subject,question,option_a,option_b,option_c,option_d,correct_answer,explanation[,difficulty]
//
// The first record is a header. Rows that cannot be turned into a valid
// question are reported in rowErrors and never abort the batch.
func ParseQuestionsCSV(r io.Reader, catalog *Catalog) ([]Question, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return parseQuestionRecords(reader, catalog)
}

type recordSource interface {
	Read() ([]string, error)
	FieldPos(field int) (line, column int)
}

func parseQuestionRecords(source recordSource, catalog *Catalog) ([]Question, []RowError, error) {
	var (
		questions []Question
		rowErrors []RowError
		records   int
	)

	for {
		record, err := source.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		records++
		// The first line is the header whether or not it parsed.
		header := records == 1
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, err
			}
			if !header {
				rowErrors = append(rowErrors, RowError{Line: parseErr.StartLine, Err: parseErr.Err})
			}
			continue
		}

		if header || isBlankRecord(record) {
			continue
		}
		line, _ := source.FieldPos(0)

		question, err := questionFromRecord(record, catalog)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}
		questions = append(questions, question)
	}

	if records == 0 {
		return nil, nil, ErrEmptyCSV
	}
	return questions, rowErrors, nil
}

func questionFromRecord(record []string, catalog *Catalog) (Question, error) {
	if len(record) < csvImportMinColumns {
		return Question{}, newValidationError("row", "expected at least %d columns, got %d", csvImportMinColumns, len(record))
	}

	correctIndex, err := parseAnswerLetter(record[6])
	if err != nil {
		return Question{}, err
	}

	input := QuestionInput{
		Category:           strings.TrimPrefix(record[0], utf8BOM),
		QuestionText:       record[1],
		Options:            []string{record[2], record[3], record[4], record[5]},
		CorrectAnswerIndex: &correctIndex,
		Explanation:        record[7],
	}
	if len(record) > csvImportMinColumns {
		input.Difficulty = record[8]
	}
	return BuildQuestion(input, catalog)
}

func parseAnswerLetter(value string) (int, error) {
	letter := strings.ToLower(strings.TrimSpace(value))
	if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'd' {
		return 0, newValidationError("correct_answer", "expected a letter a-d, got %q", value)
	}
	return int(letter[0] - 'a'), nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// WriteScoresCSV writes the score history export.
func WriteScoresCSV(w io.Writer, scores []Score) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ScoreExportHeader); err != nil {
		return err
	}

	for _, score := range scores {
		row := []string{
			score.DateTaken.UTC().Format("2006-01-02"),
			score.ExamType,
			strconv.Itoa(Percentage(score.CorrectAnswers, score.TotalQuestions)),
			strconv.Itoa(score.CorrectAnswers),
			strconv.Itoa(score.TotalQuestions),
			strconv.Itoa(minutesRounded(score.TimeSpent)),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func minutesRounded(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 30) / 60
}

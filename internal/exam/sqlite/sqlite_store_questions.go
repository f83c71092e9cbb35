package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"mock-exam/internal/exam"
)

const questionColumns = `id, question_text, options_json, correct_index, explanation, category, difficulty, created_at_unix`

// ListQuestions narrows by category and difficulty in SQL. The text search
// runs in Go so it lowercases Thai and Latin text the same way MemoryStore does.
func (s *SQLiteStore) ListQuestions(ctx context.Context, filter exam.QuestionFilter) ([]exam.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	var (
		clauses []string
		args    []any
	)

	if category := strings.TrimSpace(filter.Category); category != "" && !strings.EqualFold(category, "all") {
		clauses = append(clauses, "category = ?")
		args = append(args, category)
	}
	if difficulty := strings.TrimSpace(filter.Difficulty); difficulty != "" && !strings.EqualFold(difficulty, "all") {
		parsed, err := exam.ParseDifficulty(difficulty)
		if err != nil {
			return []exam.Question{}, nil
		}
		clauses = append(clauses, "difficulty = ?")
		args = append(args, string(parsed))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at_unix DESC, id ASC"

	questions, err := s.queryQuestions(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	out := questions[:0]
	for _, question := range questions {
		if filter.MatchesSearch(question) {
			out = append(out, question)
		}
	}
	return out, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (exam.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	question, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return exam.Question{}, exam.ErrQuestionNotFound
		}
		return exam.Question{}, err
	}
	return question, nil
}

func (s *SQLiteStore) GetQuestions(ctx context.Context, ids []string) ([]exam.Question, error) {
	if len(ids) == 0 {
		return []exam.Question{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for idx, id := range ids {
		placeholders[idx] = "?"
		args[idx] = id
	}
	return s.queryQuestions(
		ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id IN (`+strings.Join(placeholders, ",")+`) ORDER BY id ASC`,
		args...,
	)
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, question exam.Question) error {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		question.ID,
		question.QuestionText,
		string(optionsJSON),
		question.CorrectAnswerIndex,
		question.Explanation,
		string(question.Category),
		string(question.Difficulty),
		question.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, question exam.Question) error {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE questions SET
			question_text = ?,
			options_json = ?,
			correct_index = ?,
			explanation = ?,
			category = ?,
			difficulty = ?
		 WHERE id = ?`,
		question.QuestionText,
		string(optionsJSON),
		question.CorrectAnswerIndex,
		question.Explanation,
		string(question.Category),
		string(question.Difficulty),
		question.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return exam.ErrQuestionNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *SQLiteStore) CountQuestions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStore) QuestionsByCategory(ctx context.Context, category exam.Category) ([]exam.Question, error) {
	return s.queryQuestions(
		ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category = ? ORDER BY id ASC`,
		string(category),
	)
}

func (s *SQLiteStore) queryQuestions(ctx context.Context, query string, args ...any) ([]exam.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]exam.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func scanQuestion(row rowScanner) (exam.Question, error) {
	var (
		question      exam.Question
		optionsJSON   string
		category      string
		difficulty    string
		createdAtUnix int64
	)
	if err := row.Scan(
		&question.ID,
		&question.QuestionText,
		&optionsJSON,
		&question.CorrectAnswerIndex,
		&question.Explanation,
		&category,
		&difficulty,
		&createdAtUnix,
	); err != nil {
		return exam.Question{}, err
	}

	if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
		return exam.Question{}, err
	}
	question.Category = exam.Category(category)
	question.Difficulty = exam.Difficulty(difficulty)
	question.CreatedAt = time.Unix(0, createdAtUnix).UTC()
	return question, nil
}

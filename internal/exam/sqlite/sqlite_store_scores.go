package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"mock-exam/internal/exam"
)

const scoreColumns = `id, total_score, total_questions, correct_answers, date_taken_unix, time_spent,
	exam_type, exam_set_id, answers_json, breakdown_json, question_ids_json`

func (s *SQLiteStore) CreateScore(ctx context.Context, score exam.Score) error {
	answersJSON, err := json.Marshal(nonNilAnswers(score.AnswersGiven))
	if err != nil {
		return err
	}
	breakdownJSON, err := json.Marshal(nonNilBreakdown(score.CategoryBreakdown))
	if err != nil {
		return err
	}
	questionIDs := score.QuestionIDs
	if questionIDs == nil {
		questionIDs = []string{}
	}
	questionIDsJSON, err := json.Marshal(questionIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO scores (`+scoreColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.ID,
		score.TotalScore,
		score.TotalQuestions,
		score.CorrectAnswers,
		score.DateTaken.UnixNano(),
		score.TimeSpent,
		score.ExamType,
		score.ExamSetID,
		string(answersJSON),
		string(breakdownJSON),
		string(questionIDsJSON),
	)
	return err
}

func (s *SQLiteStore) ListScores(ctx context.Context, limit int) ([]exam.Score, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as unbounded.
		limit = -1
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+scoreColumns+` FROM scores ORDER BY date_taken_unix DESC, id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]exam.Score, 0)
	for rows.Next() {
		var (
			score           exam.Score
			dateTakenUnix   int64
			answersJSON     string
			breakdownJSON   string
			questionIDsJSON string
		)
		if err := rows.Scan(
			&score.ID,
			&score.TotalScore,
			&score.TotalQuestions,
			&score.CorrectAnswers,
			&dateTakenUnix,
			&score.TimeSpent,
			&score.ExamType,
			&score.ExamSetID,
			&answersJSON,
			&breakdownJSON,
			&questionIDsJSON,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(answersJSON), &score.AnswersGiven); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &score.CategoryBreakdown); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questionIDsJSON), &score.QuestionIDs); err != nil {
			return nil, err
		}
		if len(score.QuestionIDs) == 0 {
			score.QuestionIDs = nil
		}
		score.DateTaken = time.Unix(0, dateTakenUnix).UTC()
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func nonNilAnswers(answers map[string]int) map[string]int {
	if answers == nil {
		return map[string]int{}
	}
	return answers
}

func nonNilBreakdown(breakdown map[string]exam.CategoryResult) map[string]exam.CategoryResult {
	if breakdown == nil {
		return map[string]exam.CategoryResult{}
	}
	return breakdown
}

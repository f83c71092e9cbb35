package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// List-valued fields are stored as JSON text; nothing queries inside them.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			question_text TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct_index INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exam_sets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			distribution_json TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scores (
			id TEXT PRIMARY KEY,
			total_score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			date_taken_unix INTEGER NOT NULL,
			time_spent INTEGER NOT NULL,
			exam_type TEXT NOT NULL,
			exam_set_id TEXT NOT NULL DEFAULT '',
			answers_json TEXT NOT NULL,
			breakdown_json TEXT NOT NULL,
			question_ids_json TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_date_taken ON scores(date_taken_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

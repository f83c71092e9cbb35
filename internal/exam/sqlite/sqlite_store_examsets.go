package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"mock-exam/internal/exam"
)

const examSetColumns = `id, name, description, distribution_json, is_active, created_at_unix`

func (s *SQLiteStore) ListExamSets(ctx context.Context) ([]exam.ExamSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+examSetColumns+` FROM exam_sets ORDER BY created_at_unix ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]exam.ExamSet, 0)
	for rows.Next() {
		set, err := scanExamSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *SQLiteStore) GetExamSet(ctx context.Context, id string) (exam.ExamSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+examSetColumns+` FROM exam_sets WHERE id = ?`, id)
	set, err := scanExamSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return exam.ExamSet{}, exam.ErrExamSetNotFound
		}
		return exam.ExamSet{}, err
	}
	return set, nil
}

func (s *SQLiteStore) FindExamSetByName(ctx context.Context, name string) (exam.ExamSet, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+examSetColumns+` FROM exam_sets WHERE name = ? COLLATE NOCASE ORDER BY created_at_unix ASC LIMIT 1`,
		name,
	)
	set, err := scanExamSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return exam.ExamSet{}, exam.ErrExamSetNotFound
		}
		return exam.ExamSet{}, err
	}
	return set, nil
}

func (s *SQLiteStore) CreateExamSet(ctx context.Context, set exam.ExamSet) error {
	distributionJSON, err := json.Marshal(set.CategoryDistribution)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO exam_sets (`+examSetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		set.ID,
		set.Name,
		set.Description,
		string(distributionJSON),
		boolToInt(set.IsActive),
		set.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) UpdateExamSet(ctx context.Context, set exam.ExamSet) error {
	distributionJSON, err := json.Marshal(set.CategoryDistribution)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE exam_sets SET name = ?, description = ?, distribution_json = ?, is_active = ? WHERE id = ?`,
		set.Name,
		set.Description,
		string(distributionJSON),
		boolToInt(set.IsActive),
		set.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return exam.ErrExamSetNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteExamSet(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM exam_sets WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanExamSet(row rowScanner) (exam.ExamSet, error) {
	var (
		set              exam.ExamSet
		distributionJSON string
		isActive         int
		createdAtUnix    int64
	)
	if err := row.Scan(&set.ID, &set.Name, &set.Description, &distributionJSON, &isActive, &createdAtUnix); err != nil {
		return exam.ExamSet{}, err
	}

	set.CategoryDistribution = make(exam.Distribution)
	if err := json.Unmarshal([]byte(distributionJSON), &set.CategoryDistribution); err != nil {
		return exam.ExamSet{}, err
	}
	set.IsActive = isActive != 0
	set.CreatedAt = time.Unix(0, createdAtUnix).UTC()
	return set, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

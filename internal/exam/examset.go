package exam

import (
	"strings"
	"time"
)

// StandardExamSetName is the display name of the seeded default exam set.
const StandardExamSetName = "ชุดข้อสอบมาตรฐาน"

type ExamSet struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description"`
	CategoryDistribution Distribution `json:"categoryDistribution"`
	IsActive             bool         `json:"isActive"`
	CreatedAt            time.Time    `json:"createdAt"`
}

type ExamSetInput struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	IsActive             *bool          `json:"isActive"`
}

type ExamSetPatch struct {
	Name                 *string         `json:"name"`
	Description          *string         `json:"description"`
	CategoryDistribution *map[string]int `json:"categoryDistribution"`
	IsActive             *bool           `json:"isActive"`
}

// BuildExamSet validates input. The distribution total is not checked here;
// oversized templates are scaled down at generation time.
func BuildExamSet(input ExamSetInput, catalog *Catalog) (ExamSet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ExamSet{}, newValidationError("name", "name is required")
	}

	dist, err := ParseDistribution(input.CategoryDistribution, catalog)
	if err != nil {
		return ExamSet{}, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	return ExamSet{
		Name:                 name,
		Description:          strings.TrimSpace(input.Description),
		CategoryDistribution: dist,
		IsActive:             active,
	}, nil
}

func (s ExamSet) Apply(patch ExamSetPatch, catalog *Catalog) (ExamSet, error) {
	merged := s
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ExamSet{}, newValidationError("name", "name is required")
		}
		merged.Name = name
	}
	if patch.Description != nil {
		merged.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.CategoryDistribution != nil {
		dist, err := ParseDistribution(*patch.CategoryDistribution, catalog)
		if err != nil {
			return ExamSet{}, err
		}
		merged.CategoryDistribution = dist
	}
	if patch.IsActive != nil {
		merged.IsActive = *patch.IsActive
	}
	return merged, nil
}

func standardExamSet() ExamSet {
	return ExamSet{
		Name:                 StandardExamSetName,
		Description:          "ข้อสอบเต็มรูปแบบ 150 ข้อ ครอบคลุม 6 หมวดวิชา",
		CategoryDistribution: DefaultDistribution(),
		IsActive:             true,
	}
}

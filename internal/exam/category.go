package exam

import (
	"strings"
)

// Category is a subject label from the catalog. The wire format stays a plain
// string; values only enter the domain through Catalog.ParseCategory.
type Category string

const (
	CategoryGeneralAptitude Category = "ความสามารถทั่วไป"
	CategoryThai            Category = "ภาษาไทย"
	CategoryComputer        Category = "คอมพิวเตอร์ (เทคโนโลยีสารสนเทศ)"
	CategoryEnglish         Category = "ภาษาอังกฤษ"
	CategorySociety         Category = "สังคม วัฒนธรรม จริยธรรม และอาเซียน"
	CategoryLaw             Category = "กฎหมายที่ประชาชนควรรู้"
)

// Difficulty is one of a small fixed label set.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "ง่าย"
	DifficultyMedium Difficulty = "ปานกลาง"
	DifficultyHard   Difficulty = "ยาก"
)

// filterAll disables a category or difficulty filter.
const filterAll = "all"

var difficultyAliases = map[string]Difficulty{
	string(DifficultyEasy):   DifficultyEasy,
	string(DifficultyMedium): DifficultyMedium,
	string(DifficultyHard):   DifficultyHard,
	"easy":                   DifficultyEasy,
	"medium":                 DifficultyMedium,
	"hard":                   DifficultyHard,
}

// Difficulties lists the accepted difficulty labels in display order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

func ParseDifficulty(value string) (Difficulty, error) {
	trimmed := strings.TrimSpace(value)
	if difficulty, ok := difficultyAliases[strings.ToLower(trimmed)]; ok {
		return difficulty, nil
	}
	return "", newValidationError("difficulty", "unknown difficulty %q", trimmed)
}

// Catalog is the ordered set of known categories. Its order is the iteration
// order for every distribution operation, which keeps scaling deterministic.
type Catalog struct {
	ordered []Category
	index   map[Category]int
}

func DefaultCategories() []Category {
	return []Category{
		CategoryGeneralAptitude,
		CategoryThai,
		CategoryComputer,
		CategoryEnglish,
		CategorySociety,
		CategoryLaw,
	}
}

// NewCatalog builds a catalog from the default categories plus extras.
// Blank and duplicate extras are ignored.
func NewCatalog(extra ...string) *Catalog {
	catalog := &Catalog{index: make(map[Category]int)}
	for _, category := range DefaultCategories() {
		catalog.add(category)
	}
	for _, label := range extra {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		catalog.add(Category(label))
	}
	return catalog
}

func (c *Catalog) add(category Category) {
	if _, ok := c.index[category]; ok {
		return
	}
	c.index[category] = len(c.ordered)
	c.ordered = append(c.ordered, category)
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Contains(category Category) bool {
	_, ok := c.index[category]
	return ok
}

func (c *Catalog) ParseCategory(label string) (Category, error) {
	category := Category(strings.TrimSpace(label))
	if category == "" {
		return "", newValidationError("category", "category is required")
	}
	if !c.Contains(category) {
		return "", newValidationError("category", "unknown category %q", string(category))
	}
	return category, nil
}

// position returns the catalog order of a category; unknown categories sort last.
func (c *Catalog) position(category Category) int {
	if idx, ok := c.index[category]; ok {
		return idx
	}
	return len(c.ordered)
}

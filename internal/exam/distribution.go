package exam

import (
	"sort"
)

const (
	// MaxExamQuestions caps every generated exam.
	MaxExamQuestions = 150
	// MaxCategoryCount bounds a single distribution entry.
	MaxCategoryCount = 1000
)

// Distribution maps a category to a requested question count.
type Distribution map[Category]int

// DefaultDistribution is the 150-question full exam.
func DefaultDistribution() Distribution {
	return Distribution{
		CategoryGeneralAptitude: 30,
		CategoryThai:            25,
		CategoryComputer:        25,
		CategoryEnglish:         30,
		CategorySociety:         20,
		CategoryLaw:             20,
	}
}

// ParseDistribution converts a wire map into a Distribution, rejecting unknown
// categories and out-of-range counts instead of silently ignoring them.
func ParseDistribution(raw map[string]int, catalog *Catalog) (Distribution, error) {
	dist := make(Distribution, len(raw))
	for label, count := range raw {
		category, err := catalog.ParseCategory(label)
		if err != nil {
			return nil, err
		}
		if count < 0 || count > MaxCategoryCount {
			return nil, newValidationError("categoryDistribution", "count for %q must be between 0 and %d", label, MaxCategoryCount)
		}
		dist[category] += count
	}
	return dist, nil
}

func (d Distribution) Total() int {
	total := 0
	for _, count := range d {
		total += count
	}
	return total
}

// Ordered returns the categories of d in catalog order. Categories missing
// from the catalog follow, sorted by label.
func (d Distribution) Ordered(catalog *Catalog) []Category {
	categories := make([]Category, 0, len(d))
	for category := range d {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		pi, pj := catalog.position(categories[i]), catalog.position(categories[j])
		if pi != pj {
			return pi < pj
		}
		return categories[i] < categories[j]
	})
	return categories
}

// ScaleTo shrinks d proportionally so it sums to exactly max. Each category
// gets floor(count*max/total); the remainder is handed out one question at a
// time in catalog order to categories that asked for at least one question.
// Distributions already within max are returned as a copy.
func (d Distribution) ScaleTo(max int, catalog *Catalog) Distribution {
	total := d.Total()
	scaled := make(Distribution, len(d))
	if total <= max {
		for category, count := range d {
			scaled[category] = count
		}
		return scaled
	}

	order := d.Ordered(catalog)
	sum := 0
	for _, category := range order {
		count := d[category] * max / total
		scaled[category] = count
		sum += count
	}

	for sum < max {
		for _, category := range order {
			if sum >= max {
				break
			}
			if d[category] <= 0 {
				continue
			}
			scaled[category]++
			sum++
		}
	}
	return scaled
}

// ToWire converts a distribution back to its string-keyed wire form.
func (d Distribution) ToWire() map[string]int {
	out := make(map[string]int, len(d))
	for category, count := range d {
		out[string(category)] = count
	}
	return out
}

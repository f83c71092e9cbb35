package exam

// Result is the outcome of scoring one question set.
type Result struct {
	TotalScore        int
	TotalQuestions    int
	CorrectAnswers    int
	CategoryBreakdown map[string]CategoryResult
}

// Calculate compares each answer with the question's correct index. A missing
// answer counts as wrong. An empty question set yields a zero result.
func Calculate(questions []Question, answers map[string]int) Result {
	result := Result{
		TotalQuestions:    len(questions),
		CategoryBreakdown: make(map[string]CategoryResult),
	}

	for _, question := range questions {
		tally := result.CategoryBreakdown[string(question.Category)]
		tally.Total++

		if chosen, ok := answers[question.ID]; ok && chosen == question.CorrectAnswerIndex {
			tally.Correct++
			result.CorrectAnswers++
		}
		result.CategoryBreakdown[string(question.Category)] = tally
	}

	result.TotalScore = Percentage(result.CorrectAnswers, result.TotalQuestions)
	return result
}

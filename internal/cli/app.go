package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mock-exam/internal/exam"
)

const (
	maxAttempts          = 3
	defaultQuestionCount = 10
)

// Config selects the practice bank and exam. With no CSVPath the built-in
// sample questions are used.
type Config struct {
	CSVPath         string
	Category        string
	Count           int
	Seed            int64
	ExtraCategories []string
}

// Run plays one practice exam offline, entirely in memory.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	service := exam.NewService(
		exam.NewMemoryStore(),
		exam.NewCatalog(cfg.ExtraCategories...),
		exam.WithShuffler(exam.NewShuffler(seed)),
	)

	if err := loadBank(ctx, out, service, cfg.CSVPath); err != nil {
		return err
	}

	request, err := practiceRequest(service.Catalog(), cfg)
	if err != nil {
		return err
	}
	generated, err := service.GenerateExam(ctx, request)
	if err != nil {
		return err
	}
	if len(generated.Questions) == 0 {
		return errors.New("no questions available for this practice exam")
	}

	session := exam.NewSession(request.Type, "", generated.Questions, 0)
	if err := session.Start(time.Now()); err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	for idx, question := range session.Questions {
		printQuestion(out, idx+1, len(session.Questions), question)

		chosenIndex, ok := getAnswer(reader, out)
		fmt.Fprintln(out)
		correctText := optionText(question, question.CorrectAnswerIndex)
		if !ok {
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n", correctText)
			printExplanation(out, question)
			continue
		}

		if err := session.Answer(question.ID, chosenIndex, time.Now()); err != nil {
			return err
		}
		if chosenIndex == question.CorrectAnswerIndex {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong. Correct answer was %s\n", correctText)
		}
		printExplanation(out, question)
	}

	if err := session.Submit(time.Now()); err != nil {
		return err
	}
	result := exam.Calculate(session.Questions, session.Answers)

	fmt.Fprintf(out, "\nFinal score: %d/%d (%d%%)\n", result.CorrectAnswers, result.TotalQuestions, result.TotalScore)
	for _, category := range service.Catalog().Categories() {
		tally, ok := result.CategoryBreakdown[string(category)]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %s: %d/%d\n", category, tally.Correct, tally.Total)
	}
	return nil
}

func loadBank(ctx context.Context, out io.Writer, service *exam.Service, path string) error {
	if strings.TrimSpace(path) == "" {
		return service.SeedDefaults(ctx, true)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	result, err := service.ImportQuestions(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d questions from %s", result.Success, path)
	if result.Errors > 0 {
		fmt.Fprintf(out, " (%d rows skipped)", result.Errors)
	}
	fmt.Fprintln(out)
	return nil
}

// practiceRequest draws Count questions from one category, or the full
// default distribution when no category is given.
func practiceRequest(catalog *exam.Catalog, cfg Config) (exam.ExamRequest, error) {
	if strings.TrimSpace(cfg.Category) == "" {
		return exam.ExamRequest{Type: exam.ExamTypeFull}, nil
	}

	category, err := catalog.ParseCategory(cfg.Category)
	if err != nil {
		return exam.ExamRequest{}, err
	}
	count := cfg.Count
	if count <= 0 {
		count = defaultQuestionCount
	}
	return exam.ExamRequest{
		Type:       exam.ExamTypeCustom,
		Categories: map[string]int{string(category): count},
	}, nil
}

func printQuestion(out io.Writer, number, total int, question exam.Question) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d [%s]: %s\n\n", number, total, question.Category, question.QuestionText)
	for idx, option := range question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+idx, option)
	}
	fmt.Fprintln(out)
}

func printExplanation(out io.Writer, question exam.Question) {
	if question.Explanation != "" {
		fmt.Fprintf(out, "Explanation: %s\n", question.Explanation)
	}
}

func getAnswer(reader *bufio.Reader, out io.Writer) (int, bool) {
	maxLetter := byte('A' + exam.OptionCount - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		userAnswer, err := reader.ReadString('\n')
		if err != nil && userAnswer == "" {
			return -1, false
		}

		userAnswer = strings.ToUpper(strings.TrimSpace(userAnswer))
		if len(userAnswer) == 1 {
			letter := userAnswer[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), true
			}
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}

	return -1, false
}

func optionText(question exam.Question, index int) string {
	if index < 0 || index >= len(question.Options) {
		return ""
	}
	return fmt.Sprintf("%c. %s", 'A'+index, question.Options[index])
}

package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mock-exam/internal/exam"
)

const (
	defaultServer      = "http://127.0.0.1:8080"
	defaultScoresLimit = 10
	defaultHTTPTimeout = 10 * time.Second
	submitTimeout      = 10 * time.Second
)

type Config struct {
	ServerURL    string
	SnapshotPath string
	ScoresLimit  int
	HTTPTimeout  time.Duration
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	scoresLimit := cfg.ScoresLimit
	if scoresLimit <= 0 {
		scoresLimit = defaultScoresLimit
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	snapshots := NewSnapshotStore(cfg.SnapshotPath)
	r := newRunner(client, snapshots, out, serverURL)
	defer r.stop()

	reader := bufio.NewReader(in)

	r.printf("exam-client\nserver=%s\nsession=%s\n\n", serverURL, snapshots.Path())
	r.printHelp()
	if saved, err := snapshots.Load(); err == nil && saved != nil {
		r.printf("\nA saved exam was found. Type 'resume' to continue it.\n")
	}

	for {
		r.printf("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.printf("\n")
				r.leave()
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])
		rest := strings.TrimSpace(line[len(args[0]):])

		switch command {
		case "help":
			r.printHelp()
		case "exit", "quit":
			r.leave()
			return nil
		case "categories":
			r.report(r.listCategories(ctx))
		case "sets":
			r.report(r.listExamSets(ctx))
		case "start":
			r.report(r.start(ctx, reader, rest))
		case "resume":
			r.report(r.resume(ctx))
		case "show":
			r.report(r.show())
		case "next":
			r.report(r.move(1))
		case "prev":
			r.report(r.move(-1))
		case "goto":
			number, parseErr := parsePositiveLimit(args, 1, 0)
			if parseErr != nil || number == 0 {
				r.printf("usage: goto <question number>\n")
				continue
			}
			r.report(r.jump(number - 1))
		case "a", "b", "c", "d":
			r.report(r.answer(ctx, command))
		case "answer":
			if len(args) != 2 {
				r.printf("usage: answer <A-D>\n")
				continue
			}
			r.report(r.answer(ctx, args[1]))
		case "bookmark":
			r.report(r.toggleBookmark())
		case "bookmarks":
			r.report(r.listBookmarks())
		case "status":
			r.report(r.status())
		case "submit":
			r.report(r.submit(ctx))
		case "review":
			r.report(r.review())
		case "scores":
			limit, parseErr := parsePositiveLimit(args, 1, scoresLimit)
			if parseErr != nil {
				r.printf("invalid scores limit: %v\n", parseErr)
				continue
			}
			r.report(r.listScores(ctx, limit))
		case "export":
			if len(args) != 2 {
				r.printf("usage: export <file>\n")
				continue
			}
			r.report(r.export(ctx, args[1]))
		case "login":
			if len(args) != 3 {
				r.printf("usage: login <username> <password>\n")
				continue
			}
			r.report(r.login(ctx, args[1], args[2]))
		case "stats":
			r.report(r.stats(ctx))
		case "import":
			if len(args) != 2 {
				r.printf("usage: import <file>\n")
				continue
			}
			r.report(r.importCSV(ctx, args[1]))
		default:
			r.printf("unknown command. type 'help' for usage.\n")
		}
	}
}

func (r *runner) printHelp() {
	r.printf("Commands:\n")
	r.printf("  help\n")
	r.printf("  categories | sets\n")
	r.printf("  start [full | set <exam_set_id> | custom <category>=<count>,...]\n")
	r.printf("  resume\n")
	r.printf("  show | next | prev | goto <n>\n")
	r.printf("  a | b | c | d | answer <A-D>\n")
	r.printf("  bookmark | bookmarks | status\n")
	r.printf("  submit | review\n")
	r.printf("  scores [limit] | export <file>\n")
	r.printf("  login <username> <password> | stats | import <file>\n")
	r.printf("  exit\n")
}

func (r *runner) report(err error) {
	if err == nil {
		return
	}
	r.printf("error: %v\n", describeClientError(err, r.serverURL))
}

func (r *runner) listCategories(ctx context.Context) error {
	categories, err := r.loadCategories(ctx)
	if err != nil {
		return err
	}
	r.printf("Categories:\n")
	for idx, category := range categories {
		r.printf("%d. %s\n", idx+1, category)
	}
	return nil
}

func (r *runner) listExamSets(ctx context.Context) error {
	sets, err := r.client.ListExamSets(ctx)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		r.printf("No exam sets.\n")
		return nil
	}

	r.printf("Exam sets:\n")
	for _, set := range sets {
		state := "active"
		if !set.IsActive {
			state = "inactive"
		}
		r.printf("- %s  %s (%d questions, %s)\n", set.ID, set.Name, set.CategoryDistribution.Total(), state)
	}
	return nil
}

func (r *runner) listScores(ctx context.Context, limit int) error {
	scores, err := r.client.ListScores(ctx, limit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		r.printf("No scores yet.\n")
		return nil
	}

	r.printf("Recent scores:\n")
	for idx, score := range scores {
		r.printf("%d. %s %s %d%% (%d/%d) %s\n",
			idx+1,
			score.DateTaken.Local().Format("2006-01-02 15:04"),
			score.ExamType,
			score.TotalScore,
			score.CorrectAnswers,
			score.TotalQuestions,
			formatClock(time.Duration(score.TimeSpent)*time.Second),
		)
	}
	return nil
}

func (r *runner) export(ctx context.Context, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.client.ExportScores(ctx, file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	r.printf("Scores exported to %s\n", path)
	return nil
}

func (r *runner) login(ctx context.Context, username, password string) error {
	if err := r.client.Login(ctx, username, password); err != nil {
		return err
	}
	r.printf("Logged in as %s.\n", username)
	return nil
}

func (r *runner) stats(ctx context.Context) error {
	stats, err := r.client.Stats(ctx)
	if err != nil {
		return err
	}
	r.printf("Questions: %d\nExams taken: %d\nAverage score: %d%%\nAverage time: %s\n",
		stats.TotalQuestions,
		stats.TotalExams,
		stats.AverageScore,
		formatClock(time.Duration(stats.AverageTime)*time.Second),
	)
	return nil
}

func (r *runner) importCSV(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	result, err := r.client.ImportCSV(ctx, file)
	if err != nil {
		return err
	}
	r.printf("Imported %d questions (%d rows rejected).\n", result.Success, result.Errors)
	return nil
}

// parseExamRequest turns the arguments of "start" into a generation request.
// Custom categories may be given by label or by their number in the
// category list.
func parseExamRequest(spec string, categories []exam.Category) (exam.ExamRequest, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return exam.ExamRequest{Type: exam.ExamTypeFull}, nil
	}

	switch strings.ToLower(fields[0]) {
	case exam.ExamTypeFull:
		return exam.ExamRequest{Type: exam.ExamTypeFull}, nil
	case "set":
		if len(fields) != 2 {
			return exam.ExamRequest{}, errors.New("usage: start set <exam_set_id>")
		}
		return exam.ExamRequest{ExamSetID: fields[1]}, nil
	case exam.ExamTypeCustom:
		raw := strings.TrimSpace(spec[len(fields[0]):])
		counts, err := parseCustomCounts(raw, categories)
		if err != nil {
			return exam.ExamRequest{}, err
		}
		return exam.ExamRequest{Type: exam.ExamTypeCustom, Categories: counts}, nil
	default:
		return exam.ExamRequest{}, fmt.Errorf("unknown exam type %q", fields[0])
	}
}

func parseCustomCounts(raw string, categories []exam.Category) (map[string]int, error) {
	if raw == "" {
		return nil, errors.New("usage: start custom <category>=<count>,...")
	}

	counts := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		label, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected <category>=<count>, got %q", strings.TrimSpace(part))
		}
		label = strings.TrimSpace(label)
		if number, err := strconv.Atoi(label); err == nil {
			if number < 1 || number > len(categories) {
				return nil, fmt.Errorf("category number %d is out of range", number)
			}
			label = string(categories[number-1])
		}

		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("count for %q must be a non-negative integer", label)
		}
		counts[label] += count
	}
	return counts, nil
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseOptionLetter(value string) (int, bool) {
	letter := strings.ToUpper(strings.TrimSpace(value))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] >= 'A'+exam.OptionCount {
		return -1, false
	}
	return int(letter[0] - 'A'), true
}

func optionLetter(index int) string {
	if index < 0 || index >= exam.OptionCount {
		return "-"
	}
	return string(rune('A' + index))
}

// formatClock renders a duration as HH:MM:SS.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("exam service unavailable at %s", serverURL)
	}
	return err
}

package questions

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/models"
)

// FileSource reads questions from a line-delimited JSON file, one
// {"question": "..."} object per line. Blank lines are ignored and malformed
// lines are logged and skipped so one bad record never sinks a run.
type FileSource struct {
	path    string
	shuffle bool
	limit   int
	logger  arbor.ILogger
}

// NewFileSource creates a question source over a JSONL file. limit <= 0
// means no limit.
func NewFileSource(path string, shuffle bool, limit int, logger arbor.ILogger) *FileSource {
	return &FileSource{
		path:    path,
		shuffle: shuffle,
		limit:   limit,
		logger:  logger,
	}
}

// Questions loads, optionally shuffles, and truncates the question list.
func (s *FileSource) Questions(ctx context.Context) ([]models.Question, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file %s: %w", s.path, err)
	}
	defer file.Close()

	var questions []models.Question
	skipped := 0
	lineNum := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var q models.Question
		if err := json.Unmarshal([]byte(line), &q); err != nil || strings.TrimSpace(q.Text) == "" {
			skipped++
			s.logger.Warn().
				Str("file", s.path).
				Int("line", lineNum).
				Msg("Skipping malformed question line")
			continue
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions file %s: %w", s.path, err)
	}

	if s.shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if s.limit > 0 && len(questions) > s.limit {
		questions = questions[:s.limit]
	}

	s.logger.Debug().
		Str("file", s.path).
		Int("questions", len(questions)).
		Int("skipped", skipped).
		Msg("Questions loaded")

	return questions, nil
}

// StaticSource yields a fixed in-memory question list. Used for single-query
// runs.
type StaticSource struct {
	questions []models.Question
}

// NewStaticSource creates a source from literal question texts, dropping
// blank entries.
func NewStaticSource(texts ...string) *StaticSource {
	questions := make([]models.Question, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		questions = append(questions, models.Question{Text: text})
	}
	return &StaticSource{questions: questions}
}

// Questions returns the configured list.
func (s *StaticSource) Questions(ctx context.Context) ([]models.Question, error) {
	return s.questions, nil
}

// AppendQuestions appends questions to a JSONL file, creating it if needed.
func AppendQuestions(path string, questions []models.Question) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open questions file %s: %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, q := range questions {
		line, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to encode question: %w", err)
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write question: %w", err)
		}
	}
	return writer.Flush()
}

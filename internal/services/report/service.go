package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/models"
)

// Service writes run reports to disk in the configured formats.
type Service struct {
	config *common.Config
	logger arbor.ILogger
}

func NewService(config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Write renders the report in each configured format and returns the paths
// of the files it produced.
func (s *Service) Write(report *models.RunReport) ([]string, error) {
	dir := s.config.Report.Dir
	if dir == "" {
		dir = "./reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	formats := s.config.Report.Formats
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	markdown := RenderMarkdown(report)

	var paths []string
	for _, format := range formats {
		switch format {
		case "markdown", "md":
			path := filepath.Join(dir, report.RunID+".md")
			if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
				return paths, fmt.Errorf("failed to write markdown report: %w", err)
			}
			paths = append(paths, path)
		case "pdf":
			data, err := ConvertMarkdownToPDF(markdown)
			if err != nil {
				return paths, fmt.Errorf("failed to render PDF report: %w", err)
			}
			path := filepath.Join(dir, report.RunID+".pdf")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return paths, fmt.Errorf("failed to write PDF report: %w", err)
			}
			paths = append(paths, path)
		default:
			s.logger.Warn().Str("format", format).Msg("Unknown report format, skipping")
		}
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Int("files", len(paths)).
		Msg("Report written")

	return paths, nil
}

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	markdown := `# Run Report run_pdf

- Provider: tavily
- Model: gpt-4o-mini

## Summary

| Metric | Value |
|---|---|
| Questions | 2 |
| Hallucination rate | 50.0% (1/2) |

## Questions

| # | Status | Hallucinated | Relevance | Documents | Question |
|---|---|---|---|---|---|
| 1 | completed | yes | 0.50 | 4 | What happened at the latest climate summit? |
| 2 | completed | no | 1.00 | 2 | Compare the two leading EV battery chemistries. |

Some **bold** closing remarks with a list:

- first item
- second item
`

	data, err := ConvertMarkdownToPDF(markdown)

	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data[:5]), "%PDF-"))
}

func TestConvertMarkdownToPDFRendersFullReport(t *testing.T) {
	data, err := ConvertMarkdownToPDF(RenderMarkdown(sampleReport()))

	require.NoError(t, err)
	assert.Greater(t, len(data), 1000)
}

func TestConvertMarkdownToPDFEmptyInput(t *testing.T) {
	data, err := ConvertMarkdownToPDF("")

	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

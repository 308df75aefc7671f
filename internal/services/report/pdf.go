package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ConvertMarkdownToPDF renders report markdown into a PDF document.
func ConvertMarkdownToPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{pdf: pdf, source: source}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	bold      bool
	italic    bool
	listLevel int
}

func (r *pdfRenderer) applyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont("Arial", style, 9)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.applyFont()
	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(6)
			}
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(12 + float64(r.listLevel)*4)
			r.pdf.Write(5, "- ")
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) heading(n *ast.Heading, entering bool) {
	if !entering {
		r.pdf.Ln(6)
		r.applyFont()
		return
	}

	r.pdf.Ln(6)
	size := 10.0
	switch n.Level {
	case 1:
		size = 14
	case 2:
		size = 12
	case 3:
		size = 11
	}
	r.pdf.SetFont("Arial", "B", size)
}

// table collects header and body rows, then draws them with measured column
// widths. The header is a row of cells directly under TableHeader.
func (r *pdfRenderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			rows = append(rows, r.cells(child))
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	r.drawTable(rows)
}

func (r *pdfRenderer) cells(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, string(cell.Text(r.source)))
		}
	}
	return cells
}

func (r *pdfRenderer) drawTable(rows [][]string) {
	const (
		fontSize     = 8.0
		lineHeight   = 4.0
		pageWidth    = 190.0
		maxCellLines = 6
	)

	numCols := len(rows[0])
	widths := r.columnWidths(rows, numCols, pageWidth, fontSize)
	leftMargin, _, _, _ := r.pdf.GetMargins()

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont("Arial", "B", fontSize)
		} else {
			r.pdf.SetFont("Arial", "", fontSize)
		}

		wrapped := make([][]string, numCols)
		maxLines := 1
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			lines := r.pdf.SplitText(cell, widths[j]-2)
			if len(lines) == 0 {
				lines = []string{""}
			}
			if len(lines) > maxCellLines {
				lines = lines[:maxCellLines]
			}
			wrapped[j] = lines
			if len(lines) > maxLines {
				maxLines = len(lines)
			}
		}

		rowHeight := float64(maxLines)*lineHeight + 2
		startY := r.pdf.GetY()
		if startY+rowHeight > 282 {
			r.pdf.AddPage()
			startY = r.pdf.GetY()
		}

		x := leftMargin
		for j := 0; j < numCols; j++ {
			if i == 0 {
				r.pdf.SetFillColor(230, 230, 230)
				r.pdf.Rect(x, startY, widths[j], rowHeight, "FD")
			} else {
				r.pdf.Rect(x, startY, widths[j], rowHeight, "D")
			}
			r.pdf.SetXY(x+1, startY+1)
			for _, line := range wrapped[j] {
				r.pdf.CellFormat(widths[j]-2, lineHeight, line, "", 2, "L", false, 0, "")
			}
			x += widths[j]
		}
		r.pdf.SetXY(leftMargin, startY+rowHeight)
	}

	r.pdf.Ln(3)
	r.applyFont()
}

// columnWidths sizes columns by their widest cell, then scales the set down
// to the page width when needed.
func (r *pdfRenderer) columnWidths(rows [][]string, numCols int, pageWidth, fontSize float64) []float64 {
	r.pdf.SetFont("Arial", "B", fontSize)

	widths := make([]float64, numCols)
	for _, row := range rows {
		for j, cell := range row {
			if j >= numCols {
				continue
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[j] {
				widths[j] = w
			}
		}
	}

	const minWidth = 12.0
	maxWidth := pageWidth / 2
	total := 0.0
	for j := range widths {
		if widths[j] < minWidth {
			widths[j] = minWidth
		}
		if widths[j] > maxWidth {
			widths[j] = maxWidth
		}
		total += widths[j]
	}

	if total > pageWidth {
		scale := pageWidth / total
		for j := range widths {
			widths[j] *= scale
			if widths[j] < 8 {
				widths[j] = 8
			}
		}
	}
	return widths
}

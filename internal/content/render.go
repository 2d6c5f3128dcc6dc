package content

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/extract"
	"github.com/randalmurphal/cognigen/internal/resources"
)

const resourceCellTitle = "Further resources"

func renderStructured(body domain.StructuredContent) []domain.Cell {
	cells := []domain.Cell{{Type: domain.CellMarkdown, Title: "Explanation", Content: body.Explanation}}

	for _, ex := range body.CodeExamples {
		cells = append(cells,
			domain.Cell{Type: domain.CellCode, Title: ex.Title, Language: ex.Language, Content: ex.Code},
			domain.Cell{Type: domain.CellMarkdown, Content: ex.Explanation},
		)
	}
	if len(body.RealWorldExamples) > 0 {
		cells = append(cells, domain.Cell{
			Type:    domain.CellMarkdown,
			Title:   "Real-world examples",
			Content: bulletList(body.RealWorldExamples, false),
		})
	}
	if len(body.StepByStep) > 0 {
		cells = append(cells, domain.Cell{
			Type:    domain.CellMarkdown,
			Title:   "Step by step",
			Content: bulletList(body.StepByStep, true),
		})
	}
	return append(cells, domain.Cell{Type: domain.CellMarkdown, Title: "Project suggestion", Content: body.ProjectSuggestion})
}

func bulletList(items []string, numbered bool) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		if numbered {
			fmt.Fprintf(&b, "%d. %s", i+1, item)
		} else {
			b.WriteString("- " + item)
		}
	}
	return b.String()
}

// notebookCells keeps the model's typed cells, or wraps its markdown
// document in a single cell. Model-supplied resource cells are dropped;
// resources only come from the resolver.
func notebookCells(p extract.Payload) []domain.Cell {
	var cells []domain.Cell
	for _, c := range p.Objects("cells") {
		typ := domain.CellType(strings.ToLower(c.String("type", string(domain.CellMarkdown))))
		if !typ.Valid() || typ == domain.CellResource {
			continue
		}

		cell := domain.Cell{
			Type:     typ,
			Title:    c.String("title", ""),
			Language: c.String("language", ""),
		}
		switch typ {
		case domain.CellMarkdown, domain.CellCode:
			text := c.Text("content", "")
			if text == "" {
				continue
			}
			cell.Content = text
		case domain.CellSeparator:
			cell.Content = c.Text("content", "")
		default:
			v := c.Any("content", nil)
			if v == nil {
				continue
			}
			cell.Content = v
		}
		if c.Has("meta") {
			if meta := c.Object("meta"); meta.Len() > 0 {
				cell.Meta = meta.Raw()
			}
		}
		cells = append(cells, cell)
	}
	if len(cells) > 0 {
		return cells
	}

	doc := p.String("markdown", "")
	if doc == "" {
		doc = p.String("explanation", NoExplanation)
	}
	return []domain.Cell{{Type: domain.CellMarkdown, Content: doc}}
}

func appendResourceCell(cells []domain.Cell, res []resources.Item) []domain.Cell {
	if len(res) == 0 {
		return cells
	}
	items := make([]resources.Item, len(res))
	copy(items, res)
	return append(cells, domain.Cell{Type: domain.CellResource, Title: resourceCellTitle, Content: items})
}

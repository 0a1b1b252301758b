package docs

import (
	"fmt"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// DocumentToMarkdown converts a document's body to Markdown. Headings,
// lists, tables and basic inline styling survive the conversion;
// anything the format cannot express falls back to plain text.
func DocumentToMarkdown(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	for _, elem := range doc.Body.Content {
		writeStructuralElement(&b, elem, true)
	}
	return b.String()
}

// DocumentToPlainText extracts the document's text content without any
// formatting.
func DocumentToPlainText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	for _, elem := range doc.Body.Content {
		writeStructuralElement(&b, elem, false)
	}
	return b.String()
}

func writeStructuralElement(b *strings.Builder, elem *docs.StructuralElement, markdown bool) {
	switch {
	case elem.Paragraph != nil:
		writeParagraph(b, elem.Paragraph, markdown)
	case elem.Table != nil:
		writeTable(b, elem.Table, markdown)
	case elem.SectionBreak != nil:
		b.WriteString("\n")
	}
}

func writeParagraph(b *strings.Builder, p *docs.Paragraph, markdown bool) {
	if markdown {
		if p.ParagraphStyle != nil {
			if prefix := headingPrefix(p.ParagraphStyle.NamedStyleType); prefix != "" {
				b.WriteString(prefix)
			}
		}
		if p.Bullet != nil {
			b.WriteString("- ")
		}
	}
	for _, pe := range p.Elements {
		if pe.TextRun != nil {
			writeTextRun(b, pe.TextRun, markdown)
		}
	}
	b.WriteString("\n")
}

func headingPrefix(namedStyle string) string {
	switch namedStyle {
	case "HEADING_1":
		return "# "
	case "HEADING_2":
		return "## "
	case "HEADING_3":
		return "### "
	case "HEADING_4":
		return "#### "
	case "HEADING_5":
		return "##### "
	case "HEADING_6":
		return "###### "
	}
	return ""
}

func writeTextRun(b *strings.Builder, tr *docs.TextRun, markdown bool) {
	text := tr.Content
	if !markdown {
		b.WriteString(text)
		return
	}

	// Styling wraps the trimmed text so markers don't swallow the
	// paragraph's trailing newline.
	trailing := ""
	if strings.HasSuffix(text, "\n") {
		text = strings.TrimSuffix(text, "\n")
		trailing = "\n"
	}

	if style := tr.TextStyle; style != nil && text != "" {
		switch {
		case style.Link != nil && style.Link.Url != "":
			text = fmt.Sprintf("[%s](%s)", text, style.Link.Url)
		case style.WeightedFontFamily != nil && style.WeightedFontFamily.FontFamily == "Courier New":
			text = "`" + text + "`"
		default:
			if style.Bold {
				text = "**" + text + "**"
			}
			if style.Italic {
				text = "*" + text + "*"
			}
		}
	}

	b.WriteString(text)
	b.WriteString(trailing)
}

func writeTable(b *strings.Builder, t *docs.Table, markdown bool) {
	for i, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var cb strings.Builder
			for _, elem := range cell.Content {
				writeStructuralElement(&cb, elem, markdown)
			}
			cells = append(cells, strings.TrimSpace(cb.String()))
		}
		if markdown {
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
			if i == 0 {
				seps := make([]string, len(cells))
				for j := range seps {
					seps[j] = "---"
				}
				b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
			}
		} else {
			b.WriteString(strings.Join(cells, "\t") + "\n")
		}
	}
	b.WriteString("\n")
}

package report

import (
	"fmt"
	"strings"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// sectionTitles are the headings of the narrative sections, in render order.
var sectionTitles = []struct {
	field string
	title string
}{
	{domain.FieldKeyFindings, "Key findings"},
	{domain.FieldMethods, "Methods"},
	{domain.FieldWhatsNew, "What's new"},
	{domain.FieldLimitations, "Limitations"},
	{domain.FieldOpenProblems, "Open problems"},
	{domain.FieldFutureWork, "Future work"},
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"|", `\|`,
)

// Markdown renders the result as a GFM document. Empty sections are
// omitted.
func Markdown(result *domain.SummarizeResult) string {
	var b strings.Builder
	doc := result.Summary

	fmt.Fprintf(&b, "# %s\n\n", escape(title(result)))

	b.WriteString("## Overview\n\n")
	for _, p := range doc.Paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteString(escape(p))
			b.WriteString("\n\n")
		}
	}

	for _, s := range sectionTitles {
		items := doc.Section(s.field)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", s.title)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", escape(item))
		}
		b.WriteString("\n")
	}

	if len(doc.Top5Papers) > 0 {
		b.WriteString("## Top papers\n\n")
		for i, p := range doc.Top5Papers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, link(p.Title, p.URL))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Evaluation\n\n")
	b.WriteString("| Coverage | Depth | Structure | Overall |\n")
	b.WriteString("| ---: | ---: | ---: | ---: |\n")
	fmt.Fprintf(&b, "| %.3f | %.3f | %.3f | %.3f |\n\n",
		result.Eval.Coverage, result.Eval.Depth, result.Eval.Structure, result.Eval.Overall)

	if len(result.Papers) > 0 {
		b.WriteString("## Papers\n\n")
		for i, p := range result.Papers {
			fmt.Fprintf(&b, "%d. %s (%s). %s.\n", i+1, link(p.Title, p.URL), escape(p.Year), escape(p.Authors))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func title(result *domain.SummarizeResult) string {
	if result.Metadata != nil && strings.TrimSpace(result.Metadata.Query) != "" {
		return "Literature review: " + strings.TrimSpace(result.Metadata.Query)
	}
	return "Literature review"
}

func link(text, url string) string {
	if text = strings.TrimSpace(text); text == "" {
		text = domain.UntitledPaper
	}
	if url == "" || strings.ContainsAny(url, " ()<>") {
		return escape(text)
	}
	return fmt.Sprintf("[%s](%s)", escape(text), url)
}

func escape(s string) string {
	return inlineEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/polytrader/polytrader/pkg/domain"
)

// renderMarkdown renders markdown for the terminal, falling back to the raw
// text when no renderer can be built (e.g. no TTY information).
func renderMarkdown(markdown string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// analysisMarkdown formats the proposed analysis shown at the confirmation
// prompt. The payload value is either a typed AnalysisInfo (in-process) or a
// plain map (deserialized).
func analysisMarkdown(payload any) string {
	var b strings.Builder
	b.WriteString("## Proposed analysis\n\n")
	switch info := payload.(type) {
	case *domain.AnalysisInfo:
		writeAnalysis(&b, info)
	case map[string]any:
		if summary, ok := info["summary"].(string); ok {
			fmt.Fprintf(&b, "%s\n\n", summary)
		}
		if p, ok := info["probability_estimate"].(float64); ok {
			fmt.Fprintf(&b, "Probability estimate: **%.3f**\n", p)
		}
	default:
		fmt.Fprintf(&b, "%v\n", payload)
	}
	return b.String()
}

func writeAnalysis(b *strings.Builder, info *domain.AnalysisInfo) {
	fmt.Fprintf(b, "%s\n\n", info.Summary)
	fmt.Fprintf(b, "Probability estimate: **%.3f**\n", info.ProbabilityEstimate)
	if len(info.KeyFactors) > 0 {
		b.WriteString("\nKey factors:\n\n")
		for _, f := range info.KeyFactors {
			fmt.Fprintf(b, "- %s\n", f)
		}
	}
	if len(info.Risks) > 0 {
		b.WriteString("\nRisks:\n\n")
		for _, r := range info.Risks {
			fmt.Fprintf(b, "- %s\n", r)
		}
	}
}

// reportMarkdown formats the final run report from the terminal state.
func reportMarkdown(state *domain.State) string {
	var b strings.Builder
	b.WriteString("# Run report\n\n")
	fmt.Fprintf(&b, "Market: **%s**\n\n", state.MarketID)

	if state.MarketData != nil {
		fmt.Fprintf(&b, "%s\n\n", state.MarketData.Question)
	}
	if state.ResearchReport != nil {
		b.WriteString("## Research\n\n")
		fmt.Fprintf(&b, "%s\n\n", state.ResearchReport.Summary)
		for _, f := range state.ResearchReport.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	if state.AnalysisInfo != nil {
		b.WriteString("## Analysis\n\n")
		writeAnalysis(&b, state.AnalysisInfo)
		b.WriteString("\n")
	}
	if state.TradeDecision != nil {
		b.WriteString("## Decision\n\n")
		td := state.TradeDecision
		fmt.Fprintf(&b, "Side: **%s**", td.Side)
		if td.TokenID != "" {
			fmt.Fprintf(&b, " on token `%s`", td.TokenID)
		}
		b.WriteString("\n\n")
		if td.Size > 0 {
			fmt.Fprintf(&b, "Size %.2f at price %.3f\n\n", td.Size, td.Price)
		}
		if td.Reason != "" {
			fmt.Fprintf(&b, "%s\n\n", td.Reason)
		}
		fmt.Fprintf(&b, "Confidence: %.2f\n", state.Confidence)
	}
	return b.String()
}

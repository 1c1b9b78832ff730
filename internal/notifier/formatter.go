package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"FlipSentinel/internal/model"
)

// gp renders a coin amount with thousands separators.
func gp(v int64) string {
	return humanize.Comma(v) + " gp"
}

func riskIcon(r model.RiskLevel) string {
	switch r {
	case model.RiskLow:
		return "🟢"
	case model.RiskMedium:
		return "🟡"
	case model.RiskHigh:
		return "🟠"
	default:
		return "🔴"
	}
}

// FormatOpportunities formats the top of the ranked opportunity list.
func FormatOpportunities(cands []model.Candidate, budget int64, limit int, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>FlipSentinel top flips</b> | %s\n", at.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Budget: %s\n\n", gp(budget))

	if len(cands) == 0 {
		b.WriteString("No item passed the filters right now.")
		return b.String()
	}
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}

	for i, c := range cands {
		fmt.Fprintf(&b, "%d. %s <b>%s</b>\n", i+1, riskIcon(c.Risk), html.EscapeString(c.Name))
		fmt.Fprintf(&b, "   buy %s → sell %s (margin %s, tax %s)\n",
			humanize.Comma(c.CurrentLow), humanize.Comma(c.CurrentHigh),
			humanize.Comma(c.Margin), humanize.Comma(c.TaxPerUnit))
		fmt.Fprintf(&b, "   qty %s | cost %s | profit %s | ROI %.1f%%\n",
			humanize.Comma(c.Quantity), gp(c.TotalCost), gp(c.ProfitAfterTax), c.ROI)
		fmt.Fprintf(&b, "   vol24h %s | volatility %.1f%% | score %.2f\n",
			humanize.Comma(c.Volume), c.Volatility, c.CompositeScore)
		if !c.IsStable {
			b.WriteString("   ⚠️ unstable price")
			if c.HasSpike {
				b.WriteString(" (spike)")
			}
			if c.HasCrash {
				b.WriteString(" (crash)")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatPortfolio formats a recommended portfolio.
func FormatPortfolio(p *model.Portfolio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 <b>Portfolio</b> for %s\n\n", gp(p.Budget))

	if len(p.Selections) == 0 {
		b.WriteString("Nothing fits this budget.")
		return b.String()
	}

	for i, c := range p.Selections {
		fmt.Fprintf(&b, "%d. <b>%s</b> × %s @ %s = %s (+%s)\n",
			i+1, html.EscapeString(c.Name), humanize.Comma(c.Quantity), humanize.Comma(c.CurrentLow),
			gp(c.TotalCost), gp(c.ProfitAfterTax))
	}
	b.WriteString("  ─────────────────\n")
	fmt.Fprintf(&b, "Invested: %s (%.1f%% of budget)\n", gp(p.TotalCost), p.BudgetUtilizationPercent)
	fmt.Fprintf(&b, "Expected profit: %s | ROI %.1f%%\n", gp(p.TotalProfitAfterTax), p.TotalROI)
	return b.String()
}

// FormatFundStatus formats the current bankroll state for display.
func FormatFundStatus(state *model.BankrollState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Bankroll</b>\n\n")
	fmt.Fprintf(&b, "Budget: %s\n", gp(state.Budget))
	if state.LastRunID != "" {
		fmt.Fprintf(&b, "Last run: %s (%s)\n", state.LastRunID, humanize.Time(state.LastRunAt))
		fmt.Fprintf(&b, "Last portfolio: %s → +%s\n", gp(state.LastPortfolioCost), gp(state.LastProfitAfterTax))
	} else {
		b.WriteString("Last run: none yet\n")
	}
	fmt.Fprintf(&b, "Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// FormatStatus formats the data pipeline status.
func FormatStatus(source string, items int, historySynced bool, runs int) string {
	var b strings.Builder
	b.WriteString("🛰 <b>Status</b>\n\n")
	fmt.Fprintf(&b, "Data source: %s\n", source)
	fmt.Fprintf(&b, "Tracked items: %s\n", humanize.Comma(int64(items)))
	fmt.Fprintf(&b, "History synced: %v\n", historySynced)
	fmt.Fprintf(&b, "Evaluation runs: %d\n", runs)
	return b.String()
}

// HelpText lists the supported commands.
const HelpText = "Available commands:\n" +
	"• /top - best flips for the current bankroll\n" +
	"• /portfolio [budget] - recommended portfolio\n" +
	"• /budget &lt;amount&gt; - set the bankroll\n" +
	"• /status - bankroll and data status"

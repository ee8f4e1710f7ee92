// Package cli holds the terminal surface: prompts and console output.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
	"github.com/aristath/tradeadvisor/internal/modules/rebalancing"
)

var (
	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	buyingPowerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

// label renders "NAME (TICKER)" for steps, which carry no Position
func label(name, ticker string) string {
	return domain.Position{Name: name, Ticker: ticker}.DisplayName()
}

// money formats a dollar amount with two decimals
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// AdviceLines renders one line per position in snapshot order
func AdviceLines(advice *advisor.Advice, positions []domain.Position) []string {
	lines := make([]string, 0, len(positions))
	for _, pos := range positions {
		name := pos.DisplayName()
		if ev, ok := advice.Signal(pos.Ticker); ok {
			if ev.ExpectedFall {
				lines = append(lines, sellStyle.Render("Recommended to sell "+name))
			} else {
				lines = append(lines, holdStyle.Render(name+" is not predicted to fall"))
			}
			continue
		}
		if err, ok := advice.Failures[pos.Ticker]; ok {
			lines = append(lines, fmt.Sprintf("Error occurred for %s: %v", name, err))
		}
	}
	return lines
}

// PrintAdvice writes the portfolio check
func PrintAdvice(w io.Writer, advice *advisor.Advice, positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No holdings for this asset type."))
		return
	}
	for _, line := range AdviceLines(advice, positions) {
		fmt.Fprintln(w, line)
	}
}

// BuyingPowerLine renders the buying power banner
func BuyingPowerLine(amount decimal.Decimal) string {
	return buyingPowerStyle.Render("Current buying power: " + money(amount))
}

// EvaluationLines renders a single-ticker evaluation with its conditions
func EvaluationLines(ev *advisor.Evaluation) []string {
	verdict := holdStyle.Render(ev.Ticker + " is not predicted to fall")
	if ev.ExpectedFall {
		verdict = sellStyle.Render("Recommended to sell " + ev.Ticker)
	}

	mark := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	lines := []string{
		verdict,
		fmt.Sprintf("Score: %d/5 from %d bars (close %.4f, previous %.4f)", ev.Score, ev.Bars, ev.Close, ev.PreviousClose),
		fmt.Sprintf("  below previous close  %s", mark(ev.Conditions.BelowPreviousClose)),
		fmt.Sprintf("  below SMA             %s", mark(ev.Conditions.BelowSMA)),
		fmt.Sprintf("  overbought (RSI>70)   %s", mark(ev.Conditions.Overbought)),
		fmt.Sprintf("  negative momentum     %s", mark(ev.Conditions.NegativeMomentum)),
		fmt.Sprintf("  bearish patterns      %s", mark(ev.Conditions.BearishPatterns)),
	}
	if !ev.Row.Complete {
		lines = append(lines, warnStyle.Render("Warning: not enough history, some indicators defaulted to zero"))
	}
	return lines
}

// QuoteLine renders a latest price the way the quote command prints it
func QuoteLine(ticker string, price decimal.Decimal) string {
	return strings.ToUpper(ticker) + ": $" + price.String()
}

// StepLine renders one plan step
func StepLine(step rebalancing.PlanStep) string {
	line := fmt.Sprintf("%-4s %s %s for %s", step.Action, step.Quantity.String(), label(step.Name, step.Ticker), money(step.Amount))
	if step.Purpose == rebalancing.PurposeFunding {
		line += " (funding)"
	}

	switch step.Status {
	case rebalancing.StatusSubmitted:
		return holdStyle.Render(line + " submitted")
	case rebalancing.StatusFailed:
		var dataErr *domain.DataError
		if errors.As(step.Err, &dataErr) {
			return sellStyle.Render(line + " failed: " + dataErr.Error())
		}
		return sellStyle.Render(line + " failed: Error occurred during the transaction. The market might be closed.")
	default:
		reason := "rejected"
		if step.Err != nil {
			reason += ": " + step.Err.Error()
		}
		return warnStyle.Render(line + " " + reason)
	}
}

// NoticeLine renders a notice
func NoticeLine(n rebalancing.Notice) string {
	switch n.Kind {
	case rebalancing.NoticeInsufficientFunds:
		return warnStyle.Render("Insufficient buying power. Consider selling some assets.")
	case rebalancing.NoticeInvalidSellAmount:
		return warnStyle.Render("Invalid sell amount. Cannot sell more than the asset value.")
	default:
		return warnStyle.Render(n.Message)
	}
}

// PrintNotice writes a notice as it happens
func PrintNotice(w io.Writer, n rebalancing.Notice) {
	fmt.Fprintln(w, NoticeLine(n))
}

// PrintStep writes a step as it happens
func PrintStep(w io.Writer, step rebalancing.PlanStep) {
	fmt.Fprintln(w, StepLine(step))
}

// PrintReport writes the end-of-pass summary
func PrintReport(w io.Writer, report *rebalancing.Report) {
	fmt.Fprintln(w, headerStyle.Render("Summary"))

	submitted := report.Submitted()
	if len(submitted) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No orders were submitted."))
	}
	for _, step := range submitted {
		fmt.Fprintln(w, StepLine(step))
	}
	if failed := len(report.Plan) - len(submitted); failed > 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d order(s) not placed", failed)))
	}

	fmt.Fprintln(w, buyingPowerStyle.Render(fmt.Sprintf("Buying power: %s -> %s",
		money(report.StartingBuyingPower), money(report.EndingBuyingPower))))
}

// Header renders a section header
func Header(title string) string {
	return headerStyle.Render(title)
}

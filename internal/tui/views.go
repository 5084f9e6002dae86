// Package tui renders accounts, usage and login status for the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexswitch/internal/core"
)

const (
	gaugeWidth = 24
	labelWidth = 12
)

// RenderAccountList lists accounts one per line. The account whose ID is
// activeID is marked.
func RenderAccountList(accounts []core.StoredAccount, activeID string) string {
	if len(accounts) == 0 {
		return dimStyle.Render("No accounts stored. Use `codexswitch import` or `codexswitch add-key`.") + "\n"
	}

	nameW := lo.Max(lo.Map(accounts, func(a core.StoredAccount, _ int) int {
		return lipgloss.Width(a.Name)
	}))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Accounts") + "\n")
	for _, acct := range accounts {
		marker := "  "
		if acct.ID == activeID {
			marker = activeMarkerStyle.Render("● ")
		}
		line := marker +
			nameStyle.Width(nameW+2).Render(acct.Name) +
			subStyle.Width(10).Render(modeLabel(acct)) +
			dimStyle.Render(shortID(acct.ID))
		if detail := accountDetail(acct); detail != "" {
			line += "  " + subStyle.Render(detail)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func modeLabel(acct core.StoredAccount) string {
	if acct.AuthMode() == core.AuthModeAPIKey {
		return "api key"
	}
	return "chatgpt"
}

func accountDetail(acct core.StoredAccount) string {
	parts := lo.Compact([]string{lo.FromPtr(acct.Email), lo.FromPtr(acct.PlanType)})
	return strings.Join(parts, " · ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderUsage renders one block per account, paired with usages by AccountID.
func RenderUsage(accounts []core.StoredAccount, usages []core.UsageInfo, th Thresholds, now time.Time) string {
	byID := lo.KeyBy(usages, func(u core.UsageInfo) string { return u.AccountID })

	var sb strings.Builder
	for _, acct := range accounts {
		u, ok := byID[acct.ID]
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(RenderAccountUsage(acct, u, th, now))
	}
	return sb.String()
}

func RenderAccountUsage(acct core.StoredAccount, u core.UsageInfo, th Thresholds, now time.Time) string {
	var sb strings.Builder

	title := nameStyle.Render(acct.Name)
	if plan := lo.FromPtr(u.PlanType); plan != "" {
		title += " " + subStyle.Render("("+plan+")")
	}
	sb.WriteString(title + "\n")

	if u.Failed() {
		sb.WriteString("  " + errorStyle.Render(*u.Error) + "\n")
		return sb.String()
	}

	sb.WriteString(renderWindow("5h limit", u.PrimaryUsedPercent, u.PrimaryWindowMinutes, u.PrimaryResetsAt, th, now))
	sb.WriteString(renderWindow("weekly", u.SecondaryUsedPercent, u.SecondaryWindowMinutes, u.SecondaryResetsAt, th, now))

	if credits := formatCredits(u); credits != "" {
		sb.WriteString("  " + labelStyle.Width(labelWidth).Render("credits") + credits + "\n")
	}
	return sb.String()
}

func renderWindow(fallback string, used *float64, minutes, resetsAt *int64, th Thresholds, now time.Time) string {
	if used == nil {
		return ""
	}
	label := fallback
	if minutes != nil {
		if w := FormatWindow(*minutes); w != "" {
			label = w + " window"
		}
	}
	line := "  " + labelStyle.Width(labelWidth).Render(label) + RenderUsageGauge(*used, gaugeWidth, th)
	if resetsAt != nil {
		line += "  " + dimStyle.Render("resets in "+FormatDuration(time.Unix(*resetsAt, 0).Sub(now)))
	}
	return line + "\n"
}

func formatCredits(u core.UsageInfo) string {
	switch {
	case lo.FromPtr(u.UnlimitedCredits):
		return "unlimited"
	case u.CreditsBalance != nil:
		return fmt.Sprintf("%.2f", *u.CreditsBalance)
	case u.HasCredits != nil && !*u.HasCredits:
		return "none"
	}
	return ""
}

// FormatWindow renders a window length in minutes as 45m, 5h, 7d, 1d12h or 2h30m.
func FormatWindow(minutes int64) string {
	if minutes <= 0 {
		return ""
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remaining := minutes % 60
	if remaining != 0 {
		return fmt.Sprintf("%dh%dm", hours, remaining)
	}
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	if hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	return fmt.Sprintf("%dd%dh", hours/24, hours%24)
}

func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}

// StatusView is the data shown by RenderStatus.
type StatusView struct {
	AuthPath string
	LoggedIn bool
	Active   *core.StoredAccount
}

func RenderStatus(v StatusView) string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Width(labelWidth).Render("auth.json") + v.AuthPath + "\n")

	switch {
	case !v.LoggedIn:
		sb.WriteString(labelStyle.Width(labelWidth).Render("login") + errorStyle.Render("none") + "\n")
	case v.Active == nil:
		sb.WriteString(labelStyle.Width(labelWidth).Render("login") + subStyle.Render("not a stored account") + "\n")
	default:
		line := activeMarkerStyle.Render(v.Active.Name) + " " + dimStyle.Render(shortID(v.Active.ID))
		if detail := accountDetail(*v.Active); detail != "" {
			line += "  " + subStyle.Render(detail)
		}
		sb.WriteString(labelStyle.Width(labelWidth).Render("active") + line + "\n")
	}
	return sb.String()
}

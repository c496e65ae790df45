package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlanMarkdown(plan planner.WeeklyPlan) string {
	var pb strings.Builder
	pb.WriteString("📅 *Weekly Meal Plan*\n\n")

	total, planned := 0, 0
	for _, day := range planner.DaysOfWeek {
		for _, r := range plan[day] {
			pb.WriteString(fmt.Sprintf("*%s*: %s", day, escape(r.Title)))
			if m := r.TotalMinutes(); m > 0 {
				pb.WriteString(fmt.Sprintf(" (%d mins)", m))
				total += m
			}
			pb.WriteString("\n")
			if r.Description != "" {
				pb.WriteString(fmt.Sprintf("_%s_\n", escape(r.Description)))
			}
			pb.WriteString("\n")
			planned++
		}
	}

	if planned == 0 {
		pb.WriteString("_No meals planned yet._\n")
		return pb.String()
	}
	pb.WriteString(fmt.Sprintf("⏱ *Total Cooking:* %d mins", total))
	return pb.String()
}

func formatShoppingListMarkdown(items []shopping.Item) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")

	if len(items) == 0 {
		sb.WriteString("\n_Nothing to buy._\n")
		return sb.String()
	}

	groups := shopping.GroupByCategory(items)
	for _, cat := range shopping.SortedCategories(groups) {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", escape(cat)))
		for _, item := range groups[cat] {
			mark := "•"
			if item.Checked || item.AlreadyHave {
				mark = "✓"
			}
			sb.WriteString(fmt.Sprintf("%s %s", mark, escape(item.Name)))
			if item.Amount != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", escape(item.Amount)))
			}
			if item.Note != "" {
				sb.WriteString(fmt.Sprintf(" _%s_", escape(item.Note)))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatMetricsReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
		if d.Degraded > 0 {
			sb.WriteString(fmt.Sprintf(", %d degraded", d.Degraded))
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %s (Alloc) / %s (Sys)\n", health.Alloc, health.Sys))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

package render

import (
	"fmt"
	"io"
	"strings"

	"smart-planner/modules/planner/dto"

	"github.com/charmbracelet/lipgloss"
	"github.com/gosuri/uitable"
)

const columnWidth = 18

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	hourStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	dayStyle    = lipgloss.NewStyle().
			Width(columnWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("#4A4A4A"))

	categoryStyles = map[string]lipgloss.Style{
		"focus":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		"tasks":  lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")),
		"target": lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		"other":  lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")),
	}
)

// Week writes the hour grid of a week followed by the hours summary
func Week(w io.Writer, view *dto.WeekViewResponse) error {
	if _, err := fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Week %s to %s", view.WeekStart, view.WeekEnd))); err != nil {
		return err
	}
	if view.Warning != "" {
		if _, err := fmt.Fprintln(w, warnStyle.Render(view.Warning)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, Grid(view)); err != nil {
		return err
	}
	if view.Hidden > 0 {
		if _, err := fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d event(s) outside the shown hours", view.Hidden))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, Summary(view.Hours))
	return err
}

// Grid lays the days out side by side with one row per hour slot
func Grid(view *dto.WeekViewResponse) string {
	if len(view.Days) == 0 {
		return ""
	}

	hours := []string{""}
	for _, slot := range view.Days[0].Slots {
		hours = append(hours, hourStyle.Render(fmt.Sprintf("%-6s", slot.Label)))
	}
	columns := []string{lipgloss.JoinVertical(lipgloss.Left, hours...)}

	for _, day := range view.Days {
		lines := []string{headerStyle.Render(fmt.Sprintf("%.3s %s", day.Weekday, day.Date[5:]))}
		for _, slot := range day.Slots {
			lines = append(lines, slotLine(slot))
		}
		columns = append(columns, dayStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func slotLine(slot dto.SlotResponse) string {
	if len(slot.Events) == 0 {
		return mutedStyle.Render("·")
	}
	titles := make([]string, 0, len(slot.Events))
	for _, e := range slot.Events {
		style, ok := categoryStyles[e.Type]
		if !ok {
			style = categoryStyles["other"]
		}
		titles = append(titles, style.Render(truncate(e.Title, columnWidth-2)))
	}
	return strings.Join(titles, ",")
}

// Summary is the weekly hours breakdown as a table
func Summary(h dto.WeeklyHoursResponse) string {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("CATEGORY", "HOURS")
	tbl.AddRow("Focus", fmt.Sprintf("%.1f", h.Focus))
	tbl.AddRow("Tasks", fmt.Sprintf("%.1f", h.Tasks))
	tbl.AddRow("Focus target", fmt.Sprintf("%.1f", h.Target))
	tbl.AddRow("Other work", fmt.Sprintf("%.1f", h.Other))
	tbl.AddRow("Free time", fmt.Sprintf("%.1f", h.Free))
	return tbl.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

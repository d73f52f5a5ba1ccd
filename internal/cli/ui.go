package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle is used for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim is used for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue is used for values next to a label.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleSuccess.Render("✓") + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleError.Render("✗") + " " + fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleInfo.Render("›") + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printStats prints a one-line summary of a settle run.
func printStats(blockCount, callbacks int, cached bool) {
	fmt.Println(statsLine(blockCount, callbacks, cached))
}

func statsLine(blockCount, callbacks int, cached bool) string {
	var parts []string
	if blockCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d blocks", blockCount)))
	}
	if callbacks > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d deferred callbacks", callbacks)))
	}
	if cached {
		parts = append(parts, styleSuccess.Render("cached"))
	} else {
		parts = append(parts, styleInfo.Render("fresh"))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const AppName = "feedcore"

var LogoLines = []string{
	"┏━╸┏━╸┏━╸╺┳┓┏━╸┏━┓┏━┓┏━╸",
	"┣╸ ┣╸ ┣╸  ┃┃┃  ┃ ┃┣┳┛┣╸ ",
	"╹  ┗━╸┗━╸╺┻┛┗━╸┗━┛╹┗╸┗━╸",
}

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#4ECDC4"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	MutedColor     = lipgloss.Color("#94A3B8")
	ErrorColor     = lipgloss.Color("#EF4444")
	SuccessColor   = lipgloss.Color("#10B981")

	titleStyle   = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	idStyle      = lipgloss.NewStyle().Foreground(MutedColor)
	urlStyle     = lipgloss.NewStyle().Foreground(SecondaryColor).Underline(true)
	locStyle     = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(SuccessColor)
)

func showBanner(w io.Writer) {
	var coloredLines []string
	for i, line := range LogoLines {
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(true)
		coloredLines = append(coloredLines, style.Render(line))
	}
	coloredLines = append(coloredLines, "", lipgloss.NewStyle().Foreground(MutedColor).Render("image feed client "+Version))

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	fmt.Fprintln(w, borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...)))
}

package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art centred for the current terminal
// width, followed by a dimmed subtitle line when one is given.
func RenderBanner(subtitle string) string {
	width := termWidth()

	lines := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}

	maxW := 0
	for _, l := range lines {
		if len(l) > maxW {
			maxW = len(l)
		}
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(padding(maxW, width))
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	if subtitle != "" {
		b.WriteString(padding(len(subtitle), width))
		b.WriteString(secondaryStyle.Render(subtitle))
		b.WriteByte('\n')
	}
	return b.String()
}

// padding centres a block of blockW columns in width.
func padding(blockW, width int) string {
	if width <= blockW {
		return ""
	}
	return strings.Repeat(" ", (width-blockW)/2)
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

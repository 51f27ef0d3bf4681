package display

import (
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

const bannerArt = `
 __  __                   ____
|  \/  | ___   ___  _ __ |  _ \ __ _  ___ ___
| |\/| |/ _ \ / _ \| '_ \| |_) / _' |/ __/ _ \
| |  | | (_) | (_) | | | |  _ < (_| | (_|  __/
|_|  |_|\___/ \___/|_| |_|_| \_\__,_|\___\___|
`

// RenderBanner returns the banner art horizontally centred for the
// current terminal width.
func RenderBanner() string {
	return centerBanner(bannerArt, termWidth())
}

func centerBanner(art string, width int) string {
	lines := strings.Split(strings.Trim(art, "\n"), "\n")

	maxW := 0
	for _, l := range lines {
		if len(l) > maxW {
			maxW = len(l)
		}
	}

	pad := 0
	if width > maxW {
		pad = (width - maxW) / 2
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{`                     _ `, "#818cf8"},
	{`   ___  __ _ ___  ___| |`, "#a78bfa"},
	{`  / _ \/ _` + "`" + ` / __|/ _ \ |`, "#c084fc"},
	{` |  __/ (_| \__ \  __/ |`, "#e879f9"},
	{`  \___|\__,_|___/\___|_|`, "#f472b6"},
}

// PrintBanner writes the easel banner to w, coloured when w is a colour terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

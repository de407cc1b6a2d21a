package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

var spinnerFrames = []string{"◜", "◝", "◞", "◟"}

// termMu serialises all terminal output so a status line redraw is never
// interleaved with a log write.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
func NewTermWriter() io.Writer {
	return termWriter{}
}

func PrintBanner(out io.Writer) {
	banner := `
   _____ __                           _       __    __
  / ___// /____  ____ _      ______(_)___ _/ /_  / /_
  \__ \/ __/ _ \/ __ \ | /| / / ___/ / __ ` + "`" + `/ __ \/ __/
 ___/ / /_/  __/ /_/ / |/ |/ / /  / / /_/ / / / / /_
/____/\__/\___/ .___/|__/|__/_/  /_/\__, /_/ /_/\__/
             /_/                   /____/
        >> describe once, emit anywhere, run live <<
`
	width := termWidth()
	termMu.Lock()
	defer termMu.Unlock()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(out, "%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

// StatusLine renders the current phase and task on one line.
func StatusLine(frame int) string {
	phase, task, since := GetStatus()

	color := colorReset
	switch phase {
	case PhaseRunning:
		color = colorNeonCyan
	case PhaseGenerating, PhaseEmitting:
		color = colorNeonMag
	}

	spin := " "
	if phase != PhaseIdle {
		spin = spinnerFrames[frame%len(spinnerFrames)]
	}

	displayTask := task
	if displayTask == "" {
		displayTask = "Waiting..."
	}
	if len(displayTask) > 40 {
		displayTask = displayTask[:37] + "..."
	}

	return fmt.Sprintf("%s%-10s%s %s%s%s %s [%v]",
		color, phase, colorReset,
		colorPurple, spin, colorReset,
		displayTask,
		time.Since(since).Round(time.Second),
	)
}

// PrintLiveStatus redraws the status line in place.
func PrintLiveStatus(out io.Writer, frame int) {
	line := StatusLine(frame)
	termMu.Lock()
	fmt.Fprintf(out, "\r\033[K%s", line)
	termMu.Unlock()
}

// ClearLiveStatus erases the status line.
func ClearLiveStatus(out io.Writer) {
	termMu.Lock()
	fmt.Fprint(out, "\r\033[K")
	termMu.Unlock()
}

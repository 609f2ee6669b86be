package sysutil

import (
	"io"
	"os"
	"os/exec"
	"runtime"
)

// clearSequence moves the cursor home and clears the screen on ANSI
// terminals.
const clearSequence = "\033[H\033[2J"

// ClearTerminal clears the terminal screen. Windows consoles are cleared
// with cls, any other terminal receives the ANSI clear sequence on w.
func ClearTerminal(w io.Writer) {
	if runtime.GOOS == "windows" {
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = os.Stdout
		_ = cmd.Run()
		return
	}

	_, _ = io.WriteString(w, clearSequence)
}

package version

import "fmt"

const (
	Version = "v0.1.0"

	colorReset    = "\033[0m"
	colorCyanBold = "\033[36;1m"
)

// asciiArtTpl returns the ASCII art of quickwebsql.
func asciiArtTpl() string {
	asciiArt := `
  ____        _      __   _      __    __   ________  __ 
 / __ \__ __ (_)____/ /__| | /| / /__ / /  / __/ __ \/ / 
/ /_/ / // // / __/  '_/ | |/ |/ / -_) _ \_\ \/ /_/ / /__
\___\_\_,_//_/\__/_/\_\  |__/|__/\__/_.__/___/\___\_\____/
%s ` + Version

	asciiArt = asciiArt[1:]                          // This just removes the first newline character
	asciiArt = colorCyanBold + asciiArt + colorReset // Add color to the ASCII art

	return asciiArt
}

// ClientVersion returns the version banner of the qwsql REPL.
func ClientVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "REPL")
}

// BenchVersion returns the version banner of qwsqlbench.
func BenchVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Benchmark")
}

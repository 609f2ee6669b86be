package styled

import "github.com/fatih/color"

// DimmedColor returns a dimmed *color.Color to print secondary information.
func DimmedColor() *color.Color {
	return color.RGB(128, 128, 128)
}

// ErrorColor returns the *color.Color used to print failed statements and
// rolled back transactions.
func ErrorColor() *color.Color {
	return color.New(color.FgRed, color.Bold)
}

// SuccessColor returns the *color.Color used to print committed transactions.
func SuccessColor() *color.Color {
	return color.New(color.FgGreen)
}

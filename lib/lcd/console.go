package lcd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1)
	ledOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	ledOff = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Console draws the panel on a terminal. Each change redraws the whole
// panel, so Print calls building up a screen are batched with Flush.
type Console struct {
	*Screen
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{Screen: NewScreen(), w: w}
}

func (self *Console) Clear() {
	self.Screen.Clear()
	self.Flush()
}

func (self *Console) Print(row, col int, text string) {
	self.Screen.Print(row, col, text)
	self.Flush()
}

func (self *Console) SetLED(led LED, on bool) {
	self.Screen.SetLED(led, on)
	self.Flush()
}

// Render returns the panel as it would be drawn.
func (self *Console) Render() string {
	rows := self.raw()
	var leds []string
	for _, led := range []LED{LEDAdmin, LEDGuest, LEDBlock} {
		style := ledOff
		if self.LED(led) {
			style = ledOn
		}
		leds = append(leds, style.Render("● "+led.String()))
	}
	screen := frameStyle.Render(strings.Join(rows[:], "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, screen, strings.Join(leds, "  "))
}

func (self *Console) Flush() {
	// home the cursor and clear below, so the panel is redrawn in place
	fmt.Fprint(self.w, "\x1b[H\x1b[J", strings.ReplaceAll(self.Render(), "\n", "\r\n"), "\r\n")
}

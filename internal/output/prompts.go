package output

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via BACKPORT_NO_INTERACTIVE
var ErrInteractiveDisabled = fmt.Errorf("interactive prompts are disabled (BACKPORT_NO_INTERACTIVE is set)")

// CanPrompt reports whether an interactive prompt can be shown.
func CanPrompt() bool {
	if os.Getenv("BACKPORT_NO_INTERACTIVE") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd())
}

// Confirm asks the user a yes/no question, defaulting to no.
func Confirm(message string) (bool, error) {
	if !CanPrompt() {
		return false, ErrInteractiveDisabled
	}

	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Package interactive provides terminal prompts for running audits by hand.
package interactive

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// MenuOption represents a menu item with its associated action
type MenuOption struct {
	Name        string
	Description string
	Action      func() error
}

// Mode choices offered by AskMode.
const (
	ModeFull  = "Full audit (engines + flows)"
	ModeFlows = "Flows only"
)

// Output choices offered by AskOutput.
const (
	OutputVerbose      = "Full JSON record"
	OutputSimpleString = "Simple (name: PASS|FAIL lines)"
	OutputSimpleJSON   = "Simple (JSON)"
)

var (
	// ErrExit is returned when the user chooses to exit
	ErrExit = errors.New("exit")
	// ErrInvalidSelection is returned when an invalid menu option is selected
	ErrInvalidSelection = errors.New("invalid selection")

	errNoURL      = errors.New("at least one URL is required")
	errInvalidURL = errors.New("URL must be absolute http(s)")
)

// askOne is swapped in tests.
var askOne = survey.AskOne

// ShowMainMenu displays the main menu and handles user selection
func ShowMainMenu(options []MenuOption) error {
	choices := make([]string, 0, len(options)+1)
	optionMap := make(map[string]MenuOption)

	for _, opt := range options {
		choice := fmt.Sprintf("%s - %s", opt.Name, opt.Description)
		choices = append(choices, choice)
		optionMap[choice] = opt
	}

	choices = append(choices, "Exit")

	var selected string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: choices,
	}

	if err := askOne(prompt, &selected); err != nil {
		return ErrExit
	}

	if selected == "Exit" {
		return ErrExit
	}

	if option, ok := optionMap[selected]; ok {
		return option.Action()
	}

	return ErrInvalidSelection
}

// AskURLs prompts for a comma-separated URL list.
func AskURLs(defaultURL string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: "URL(s) to audit (comma-separated):",
		Default: defaultURL,
	}

	if err := askOne(prompt, &answer, survey.WithValidator(ValidateURLs)); err != nil {
		return "", err
	}

	return answer, nil
}

// AskMode prompts for the audit mode and reports whether flows-only was chosen.
func AskMode() (bool, error) {
	var selected string
	prompt := &survey.Select{
		Message: "What should run?",
		Options: []string{ModeFull, ModeFlows},
		Default: ModeFull,
	}

	if err := askOne(prompt, &selected); err != nil {
		return false, err
	}

	return selected == ModeFlows, nil
}

// AskOutput prompts for how results are printed.
func AskOutput() (string, error) {
	var selected string
	prompt := &survey.Select{
		Message: "Output format:",
		Options: []string{OutputVerbose, OutputSimpleString, OutputSimpleJSON},
		Default: OutputSimpleString,
	}

	if err := askOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}

// ValidateURLs is a survey validator accepting a comma-separated list of
// absolute http(s) URLs.
func ValidateURLs(ans interface{}) error {
	raw, _ := ans.(string)

	count := 0

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		u, err := url.Parse(part)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s", errInvalidURL, part)
		}

		count++
	}

	if count == 0 {
		return errNoURL
	}

	return nil
}

// PauseForEnter waits for the user to press Enter
func PauseForEnter() {
	fmt.Println("\nPress Enter to continue...")
	_, _ = fmt.Scanln()
}

// Confirm asks for user confirmation
func Confirm(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	_ = askOne(prompt, &confirmed)
	return confirmed
}

package main

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var errCancelled = errors.New("formflow-gate: prompt cancelled")

// Prompter abstracts the terminal so run can be tested without one.
type Prompter interface {
	Input(ctx context.Context, message string) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: message}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

// fixedPrompter answers with a single identifier and never retries.
type fixedPrompter struct {
	value string
}

func (p fixedPrompter) Input(context.Context, string) (string, error) { return p.value, nil }

func (fixedPrompter) Confirm(context.Context, string) (bool, error) { return false, nil }

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errCancelled
	}
	return err
}

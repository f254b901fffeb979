package validation

import (
	"regexp"
	"strconv"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

var (
	zip5Pattern = regexp.MustCompile(`^\d{5}$`)
	zip4Pattern = regexp.MustCompile(`^\d{4}$`)
)

func (v *Validator) checkGroups(form model.Form) []FieldError {
	var errs []FieldError
	for _, group := range v.groups {
		if !group.Present(form) {
			continue
		}
		var messages []string
		switch group.Kind {
		case model.GroupTIN:
			messages = checkDigitParts(group.Values(form), "All TIN parts are required", "TIN must contain only digits")
		case model.GroupPhone:
			messages = checkDigitParts(group.Values(form), "All phone parts are required", "Phone must contain only digits")
		case model.GroupDateOfBirth:
			messages = checkDateOfBirth(group.Values(form), v.now())
		case model.GroupZIP:
			messages = checkZIP(form, group)
		}
		for _, message := range messages {
			errs = append(errs, FieldError{Field: group.Label, Message: message})
		}
	}
	return errs
}

func checkDigitParts(values []string, missing, nonDigit string) []string {
	var out []string
	anyEmpty, anyNonDigit := false, false
	for _, value := range values {
		if value == "" {
			anyEmpty = true
			continue
		}
		if !allDigits(value) {
			anyNonDigit = true
		}
	}
	if anyEmpty {
		out = append(out, missing)
	}
	if anyNonDigit {
		out = append(out, nonDigit)
	}
	return out
}

// checkDateOfBirth expects values ordered month, day, year.
func checkDateOfBirth(values []string, now time.Time) []string {
	if len(values) != 3 {
		return []string{"Date of Birth is incomplete"}
	}
	for _, value := range values {
		if value == "" || !allDigits(value) {
			return []string{"Date of Birth must be numeric (MM DD YYYY)"}
		}
	}

	month, _ := strconv.Atoi(values[0])
	day, _ := strconv.Atoi(values[1])
	year, _ := strconv.Atoi(values[2])

	var out []string
	if year < MinBirthYear {
		out = append(out, "Year must be 1900 or later")
	}

	composed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if composed.Year() != year || int(composed.Month()) != month || composed.Day() != day {
		return append(out, "Date of Birth is not a valid calendar date")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if composed.After(today) {
		out = append(out, "Date of Birth cannot be in the future")
	}
	return out
}

func checkZIP(form model.Form, group model.Group) []string {
	if len(group.Names) == 0 {
		return nil
	}
	var out []string

	primary, _ := form.Control(group.Names[0])
	zip5 := form.Value(group.Names[0])
	title5 := primary.Title
	switch {
	case zip5 == "":
		out = append(out, override(title5, "ZIP (5-digit) is required"))
	case !zip5Pattern.MatchString(zip5):
		out = append(out, override(title5, "ZIP must be 5 digits"))
	}

	if len(group.Names) > 1 {
		extension, _ := form.Control(group.Names[1])
		zip4 := form.Value(group.Names[1])
		if zip4 != "" && !zip4Pattern.MatchString(zip4) {
			out = append(out, override(extension.Title, "ZIP+4 must be 4 digits"))
		}
	}
	return out
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

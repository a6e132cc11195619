/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultTimeLimit = 30

var validate = validator.New(validator.WithRequiredStructEnabled())

// Question is a single timed multiple-choice prompt.
type Question struct {
	Text          string   `validate:"required"`
	Options       []string `validate:"min=2,dive,required"`
	CorrectOption int      `validate:"gte=0"`
	TimeLimit     int      `validate:"gt=0,lte=3600"`
}

// NewQuestion trims and validates a host-supplied question. A zero time
// limit is replaced by the default.
func NewQuestion(text string, options []string, correct, timeLimit int) (Question, error) {
	q := Question{
		Text:          strings.TrimSpace(text),
		Options:       make([]string, 0, len(options)),
		CorrectOption: correct,
		TimeLimit:     timeLimit,
	}
	for _, o := range options {
		q.Options = append(q.Options, strings.TrimSpace(o))
	}
	if q.TimeLimit == 0 {
		q.TimeLimit = defaultTimeLimit
	}

	if err := validate.Struct(q); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return Question{}, failf(ErrValidation, "Question has an invalid %s", strings.ToLower(fields[0].StructField()))
		}
		return Question{}, failf(ErrValidation, "Question is invalid: %v", err)
	}
	if q.CorrectOption >= len(q.Options) {
		return Question{}, failf(ErrValidation, "Correct answer %d is out of range for %d options",
			q.CorrectOption, len(q.Options))
	}

	return q, nil
}

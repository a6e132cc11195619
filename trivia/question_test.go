/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQuestion(t *testing.T) {
	req := require.New(t)

	q, err := NewQuestion("  Capital of France?  ", []string{" Paris", "Lyon "}, 0, 0)
	req.NoError(err)
	req.Equal("Capital of France?", q.Text)
	req.Equal([]string{"Paris", "Lyon"}, q.Options)
	req.Equal(0, q.CorrectOption)
	req.Equal(defaultTimeLimit, q.TimeLimit)
}

func TestNewQuestion_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		options   []string
		correct   int
		timeLimit int
	}{
		{"empty text", " ", []string{"a", "b"}, 0, 10},
		{"single option", "q", []string{"a"}, 0, 10},
		{"blank option", "q", []string{"a", "  "}, 0, 10},
		{"correct index past options", "q", []string{"a", "b"}, 2, 10},
		{"negative correct index", "q", []string{"a", "b"}, -1, 10},
		{"negative time limit", "q", []string{"a", "b"}, 0, -5},
		{"time limit too long", "q", []string{"a", "b"}, 0, 3601},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuestion(tt.text, tt.options, tt.correct, tt.timeLimit)
			require.ErrorIs(t, err, ErrValidation)
			require.NotEmpty(t, publicMessage(err))
		})
	}
}

func TestPhase_OnlyMovesForward(t *testing.T) {
	req := require.New(t)

	next, err := Waiting.to(Playing)
	req.NoError(err)
	req.Equal(Playing, next)

	next, err = Playing.to(Finished)
	req.NoError(err)
	req.Equal(Finished, next)

	for _, tc := range [][2]Phase{{Waiting, Finished}, {Playing, Waiting}, {Finished, Playing}, {Finished, Finished}} {
		_, err := tc[0].to(tc[1])
		req.ErrorIs(err, ErrInvalidTransition, "%s -> %s", tc[0], tc[1])
	}

	req.Equal("waiting", Waiting.String())
	req.Equal("finished", Finished.String())
}

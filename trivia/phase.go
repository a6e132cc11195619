/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import "fmt"

// Phase is the lifecycle stage of a Session. It only moves forward.
type Phase int

const (
	Waiting Phase = iota
	Playing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// to returns the target phase if p may move to it, and ErrInvalidTransition otherwise.
func (p Phase) to(next Phase) (Phase, error) {
	if next != p+1 {
		return p, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p, next)
	}
	return next, nil
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultHostName = "Host"

// Transport delivers one outbound message to one connection. Sends are
// fire-and-forget; a connection that has gone away is simply skipped.
type Transport interface {
	Send(conn ConnID, msg Message)
}

type handler func(conn ConnID, data json.RawMessage)

// Router dispatches inbound events to handlers and fans replies out to a
// single connection or to every connection in a game's room.
type Router struct {
	registry *Registry
	dir      *Directory
	out      Transport
	logf     func(format string, args ...any)

	handlers map[string]handler
}

func NewRouter(registry *Registry, dir *Directory, out Transport, logf func(string, ...any)) *Router {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	r := &Router{
		registry: registry,
		dir:      dir,
		out:      out,
		logf:     logf,
	}

	r.handlers = map[string]handler{
		EventCreate:       r.handleCreate,
		EventJoin:         r.handleJoin,
		EventAddQuestion:  r.hostOnly(r.handleAddQuestion),
		EventStart:        r.hostOnly(r.handleStart),
		EventNextQuestion: r.hostOnly(r.handleNextQuestion),
		EventSubmitAnswer: r.member(r.handleSubmitAnswer),
		EventRejoin:       r.handleRejoin,
	}

	return r
}

func (r *Router) Registry() *Registry {
	return r.registry
}

func (r *Router) Directory() *Directory {
	return r.dir
}

// Dispatch handles one inbound event and reports whether it was recognised.
func (r *Router) Dispatch(conn ConnID, event string, data json.RawMessage) bool {
	if canonical, ok := aliases[event]; ok {
		event = canonical
	}

	h, ok := r.handlers[event]
	if !ok {
		r.logf("GAMES: Ignoring unknown event %q from %s", event, conn)
		return false
	}

	h(conn, data)

	return true
}

func (r *Router) send(conn ConnID, event string, data any) {
	r.out.Send(conn, Message{Event: event, Data: data})
}

// broadcastLocked sends to every connection in s's room. s.mu must be held
// so that all members observe events in mutation order.
func (r *Router) broadcastLocked(s *Session, event string, data any) {
	for _, c := range r.dir.Room(s.code) {
		r.send(c, event, data)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return failf(ErrValidation, "Malformed request")
	}
	return nil
}

// requestError turns a struct validation failure into a client message.
func requestError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 && fields[0].Tag() == "max" {
		return failf(ErrValidation, "Name is too long")
	}
	return failf(ErrValidation, "Game PIN and name are required")
}

// withSession runs fn with the session conn is attached to locked. The
// membership is rechecked under the lock, since a rejoin elsewhere may
// have evicted conn in the meantime.
func (r *Router) withSession(conn ConnID, fn func(s *Session, m Membership)) bool {
	m, ok := r.dir.Get(conn)
	if !ok {
		return false
	}

	s, err := r.registry.Lookup(m.Code)
	if err != nil {
		r.dir.Delete(conn)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := r.dir.Get(conn); !ok || cur != m {
		return false
	}

	s.touchLocked()
	fn(s, m)

	return true
}

func (r *Router) member(h func(s *Session, m Membership, conn ConnID, data json.RawMessage)) handler {
	return func(conn ConnID, data json.RawMessage) {
		if !r.withSession(conn, func(s *Session, m Membership) {
			h(s, m, conn, data)
		}) {
			r.logf("GAMES: Dropping event from unattached connection %s", conn)
		}
	}
}

// hostOnly silently drops events from anyone but the host of record.
func (r *Router) hostOnly(h func(s *Session, m Membership, conn ConnID, data json.RawMessage)) handler {
	return r.member(func(s *Session, m Membership, conn ConnID, data json.RawMessage) {
		if !m.IsHost || !s.isHostLocked(conn) {
			r.logf("GAMES: %v: %q in %s", ErrUnauthorized, m.Name, s.code)
			return
		}
		h(s, m, conn, data)
	})
}

// deliverLocked sends the current question to conns and records that they
// have seen it.
func (r *Router) deliverLocked(s *Session, conns ...ConnID) {
	q, ok := s.currentLocked()
	if !ok {
		return
	}

	msg := QuestionPayload{
		QuestionNumber: s.cursor + 1,
		TotalQuestions: len(s.questions),
		Question:       q.Text,
		Options:        q.Options,
		TimeLimit:      q.TimeLimit,
		CorrectAnswer:  q.CorrectOption,
	}

	for _, c := range conns {
		s.delivered[c] = s.cursor
		r.send(c, EventNewQuestion, msg)
	}
}

func (r *Router) finishLocked(s *Session) {
	r.broadcastLocked(s, EventGameFinished, GameFinished{FinalScores: s.scoresLocked()})
	r.logf("GAMES: Game %s finished", s.code)
}

func (r *Router) handleCreate(conn ConnID, data json.RawMessage) {
	var req createRequest
	if err := decode(data, &req); err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	name := strings.TrimSpace(req.HostName)
	if name == "" {
		name = defaultHostName
	}

	s, err := r.registry.Create(name, conn)
	if err != nil {
		r.logf("ERROR: %v", err)
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	r.Disconnect(conn)

	s.mu.Lock()
	defer s.mu.Unlock()

	r.dir.Set(conn, Membership{Name: name, Code: s.code, IsHost: true})

	r.send(conn, EventGameCreated, GameCode{GamePin: s.code})
	r.broadcastLocked(s, EventPlayerJoined, PlayerJoined{
		PlayerName: name,
		IsHost:     true,
		Players:    s.playersLocked(),
	})

	r.logf("GAMES: %q created game %s", name, s.code)
}

func (r *Router) handleJoin(conn ConnID, data json.RawMessage) {
	var req joinRequest
	if err := decode(data, &req); err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	req.GamePin = strings.TrimSpace(req.GamePin)
	req.PlayerName = strings.TrimSpace(req.PlayerName)

	if err := validate.Struct(req); err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(requestError(err))})
		return
	}

	s, err := r.registry.Lookup(req.GamePin)
	if err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	prev, from := r.attachment(conn)

	unlock := lockSessions(s, from)
	defer unlock()

	if from != nil {
		if cur, ok := r.dir.Get(conn); !ok || cur != prev {
			from = nil
		}
	}

	if err := s.canJoinLocked(conn, req.PlayerName); err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	if from != nil {
		r.detachLocked(from, conn, prev)
	}

	if err := s.joinLocked(conn, req.PlayerName); err != nil {
		r.send(conn, EventJoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}
	s.touchLocked()

	r.dir.Set(conn, Membership{Name: req.PlayerName, Code: s.code})

	r.send(conn, EventJoinSuccess, GameCode{GamePin: s.code})
	r.broadcastLocked(s, EventPlayerJoined, PlayerJoined{
		PlayerName: req.PlayerName,
		Players:    s.playersLocked(),
	})

	r.logf("GAMES: Player %q joined %s", req.PlayerName, s.code)
}

func (r *Router) handleAddQuestion(s *Session, _ Membership, conn ConnID, data json.RawMessage) {
	var req addQuestionRequest
	if err := decode(data, &req); err != nil {
		r.send(conn, EventQuestionError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	q, err := NewQuestion(req.Question, req.Options, req.CorrectAnswer, req.TimeLimit)
	if err != nil {
		r.send(conn, EventQuestionError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	count, err := s.addQuestionLocked(q)
	if err != nil {
		r.send(conn, EventQuestionError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	r.send(conn, EventQuestionAdded, QuestionAdded{QuestionCount: count})
}

func (r *Router) handleStart(s *Session, _ Membership, conn ConnID, _ json.RawMessage) {
	if err := s.startLocked(); err != nil {
		r.send(conn, EventStartError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	r.broadcastLocked(s, EventGameStarted, GameStarted{})
	r.deliverLocked(s, r.dir.Room(s.code)...)

	r.logf("GAMES: Game %s started with %d questions", s.code, len(s.questions))
}

func (r *Router) handleNextQuestion(s *Session, _ Membership, _ ConnID, _ json.RawMessage) {
	finished, err := s.advanceLocked()
	if err != nil {
		r.logf("GAMES: Cannot advance %s: %v", s.code, err)
		return
	}

	if finished {
		r.finishLocked(s)
		return
	}

	r.deliverLocked(s, r.dir.Room(s.code)...)
}

func (r *Router) handleSubmitAnswer(s *Session, _ Membership, conn ConnID, data json.RawMessage) {
	var req submitAnswerRequest
	if err := decode(data, &req); err != nil {
		r.send(conn, EventAnswerError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	answer := -1
	if req.Answer != nil {
		answer = *req.Answer
	}

	res, err := s.submitLocked(conn, answer, req.QuestionNumber)
	if err != nil {
		r.logf("GAMES: Rejected answer in %s: %v", s.code, err)
		r.send(conn, EventAnswerError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	r.broadcastLocked(s, EventAnswerReceived, AnswerReceived{
		PlayerName: res.PlayerName,
		Answer:     res.Answer,
		IsCorrect:  res.IsCorrect,
		Score:      res.Total,
	})
}

func (r *Router) handleRejoin(conn ConnID, data json.RawMessage) {
	var req rejoinRequest
	if err := decode(data, &req); err != nil {
		r.send(conn, EventRejoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	req.GamePin = strings.TrimSpace(req.GamePin)
	req.PlayerName = strings.TrimSpace(req.PlayerName)

	if err := validate.Struct(req); err != nil {
		r.send(conn, EventRejoinError, ErrorNotice{Message: publicMessage(requestError(err))})
		return
	}

	s, err := r.registry.Lookup(req.GamePin)
	if err != nil {
		r.send(conn, EventRejoinError, ErrorNotice{Message: publicMessage(err)})
		return
	}

	r.Disconnect(conn)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchLocked()

	for _, old := range s.rejoinLocked(conn, req.PlayerName, req.IsHost) {
		if m, ok := r.dir.Get(old); ok && m.Code == s.code {
			r.dir.Delete(old)
		}
	}

	r.dir.Set(conn, Membership{Name: req.PlayerName, Code: s.code, IsHost: req.IsHost})

	r.broadcastLocked(s, EventPlayerJoined, PlayerJoined{
		PlayerName: req.PlayerName,
		IsHost:     req.IsHost,
		Players:    s.playersLocked(),
	})

	switch s.phase {
	case Playing:
		r.deliverLocked(s, conn)
	case Finished:
		r.send(conn, EventGameFinished, GameFinished{FinalScores: s.scoresLocked()})
	}

	if req.IsHost {
		r.logf("GAMES: Host %q rejoined %s", req.PlayerName, s.code)
	} else {
		r.logf("GAMES: Player %q rejoined %s", req.PlayerName, s.code)
	}
}

// Disconnect applies connection-loss semantics for conn: a host leaves the
// game waiting for their return, a player is removed along with their score.
func (r *Router) Disconnect(conn ConnID) {
	r.withSession(conn, func(s *Session, m Membership) {
		r.detachLocked(s, conn, m)
	})
}

// detachLocked removes conn, attached to s as m, from s's room.
func (r *Router) detachLocked(s *Session, conn ConnID, m Membership) {
	r.dir.Delete(conn)

	if m.IsHost && conn == s.hostConn {
		s.hostLostLocked()
		r.broadcastLocked(s, EventHostDisconnected, ErrorNotice{Message: "Host temporarily disconnected..."})
		r.logf("GAMES: Host of game %s disconnected (game preserved)", s.code)
		return
	}

	if m.IsHost {
		// A superseded host connection; the scoreboard belongs to the current one.
		delete(s.roster, conn)
		delete(s.delivered, conn)
		return
	}

	p, ok := s.removePlayerLocked(conn)
	if !ok {
		return
	}

	r.broadcastLocked(s, EventPlayerLeft, PlayerLeft{
		PlayerName: p.Name,
		Players:    s.playersLocked(),
	})

	r.logf("GAMES: Player %q left %s", p.Name, s.code)
}

// attachment returns conn's membership and the session it names, or a nil
// session when conn is not attached to a live game.
func (r *Router) attachment(conn ConnID) (Membership, *Session) {
	m, ok := r.dir.Get(conn)
	if !ok {
		return Membership{}, nil
	}

	s, err := r.registry.Lookup(m.Code)
	if err != nil {
		return Membership{}, nil
	}

	return m, s
}

// lockSessions locks a and, when it is a different session, b. Two sessions
// are always locked in code order.
func lockSessions(a, b *Session) func() {
	if b == nil || b == a {
		a.mu.Lock()
		return a.mu.Unlock
	}

	if b.code < a.code {
		a, b = b, a
	}

	a.mu.Lock()
	b.mu.Lock()

	return func() {
		b.mu.Unlock()
		a.mu.Unlock()
	}
}

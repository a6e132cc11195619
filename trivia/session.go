/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Player is one roster entry. Score mirrors the scoreboard for this
// connection's display name.
type Player struct {
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
	Score  int    `json:"score"`

	seq uint64
}

// Session is one game's full live state. All fields are guarded by mu;
// methods with the Locked suffix assume it is held.
type Session struct {
	mu sync.Mutex

	code          string
	hostName      string
	hostConn      ConnID
	hostConnected bool

	roster     map[ConnID]*Player
	scoreboard map[string]int

	questions     []Question
	cursor        int
	phase         Phase
	questionStart time.Time

	// answered holds names already scored for the current question.
	answered map[string]bool
	// delivered is the question index last sent to each connection.
	delivered map[ConnID]int

	seq        uint64
	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

func newSession(code, hostName string, host ConnID, now func() time.Time) *Session {
	t := now()

	s := &Session{
		code:          code,
		hostName:      hostName,
		hostConn:      host,
		hostConnected: true,
		roster:        make(map[ConnID]*Player),
		scoreboard:    make(map[string]int),
		answered:      make(map[string]bool),
		delivered:     make(map[ConnID]int),
		phase:         Waiting,
		createdAt:     t,
		lastActive:    t,
		now:           now,
	}

	s.addPlayerLocked(host, hostName, true, 0)

	return s
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

func (s *Session) addPlayerLocked(conn ConnID, name string, isHost bool, score int) {
	s.seq++
	s.roster[conn] = &Player{Name: name, IsHost: isHost, Score: score, seq: s.seq}
	s.scoreboard[name] = score
}

// nameTakenLocked reports whether a connection other than conn holds name.
func (s *Session) nameTakenLocked(name string, conn ConnID) bool {
	for c, p := range s.roster {
		if c != conn && p.Name == name {
			return true
		}
	}
	return false
}

// isHostLocked reports whether conn is the host of record.
func (s *Session) isHostLocked(conn ConnID) bool {
	return s.hostConnected && conn == s.hostConn
}

// canJoinLocked returns the reason conn may not join under name, if any.
// A connection's own roster entry does not count against it.
func (s *Session) canJoinLocked(conn ConnID, name string) error {
	if s.phase != Waiting {
		return failf(ErrValidation, "Game already started")
	}
	if s.nameTakenLocked(name, conn) {
		return failf(ErrValidation, "Name already taken")
	}
	return nil
}

func (s *Session) joinLocked(conn ConnID, name string) error {
	if err := s.canJoinLocked(conn, name); err != nil {
		return err
	}

	s.addPlayerLocked(conn, name, false, 0)

	return nil
}

func (s *Session) addQuestionLocked(q Question) (int, error) {
	if s.phase == Finished {
		return len(s.questions), failf(ErrInvalidTransition, "Game already finished")
	}

	s.questions = append(s.questions, q)

	return len(s.questions), nil
}

func (s *Session) startLocked() error {
	if s.phase != Waiting {
		return failf(ErrInvalidTransition, "Game already started")
	}
	if len(s.questions) == 0 {
		return failf(ErrValidation, "Add at least one question before starting")
	}

	phase, err := s.phase.to(Playing)
	if err != nil {
		return err
	}

	s.phase = phase
	s.cursor = 0
	s.beginQuestionLocked()

	return nil
}

func (s *Session) beginQuestionLocked() {
	s.questionStart = s.now()
	clear(s.answered)
}

// advanceLocked moves the cursor forward and reports whether the game has
// finished as a result.
func (s *Session) advanceLocked() (bool, error) {
	if s.phase != Playing {
		return false, failf(ErrInvalidTransition, "Game is %s", s.phase)
	}

	if s.cursor+1 < len(s.questions) {
		s.cursor++
		s.beginQuestionLocked()
		return false, nil
	}

	phase, err := s.phase.to(Finished)
	if err != nil {
		return false, err
	}

	s.cursor = len(s.questions)
	s.phase = phase
	clear(s.answered)

	return true, nil
}

// currentLocked returns the active question while Playing.
func (s *Session) currentLocked() (Question, bool) {
	if s.phase != Playing || s.cursor >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.cursor], true
}

// AnswerResult is the outcome of an accepted submission.
type AnswerResult struct {
	PlayerName string
	Answer     int
	IsCorrect  bool
	Awarded    int
	Total      int
}

// submitLocked scores an answer against the question last delivered to
// conn. hint is the client's 1-based question number, if it sent one; it
// can only cause a rejection.
func (s *Session) submitLocked(conn ConnID, answer int, hint *int) (AnswerResult, error) {
	p, ok := s.roster[conn]
	if !ok {
		return AnswerResult{}, failf(ErrUnauthorized, "Not a player in this game")
	}

	q, ok := s.currentLocked()
	if !ok {
		return AnswerResult{}, failf(ErrStale, "No question is active")
	}

	if idx, seen := s.delivered[conn]; !seen || idx != s.cursor {
		return AnswerResult{}, failf(ErrStale, "Question is no longer active")
	}
	if hint != nil && *hint != s.cursor+1 {
		return AnswerResult{}, failf(ErrStale, "Question %d is no longer active", *hint)
	}
	if s.answered[p.Name] {
		return AnswerResult{}, failf(ErrDuplicateAnswer, "Answer already submitted")
	}

	points := Score(q, answer, s.now().Sub(s.questionStart))

	s.answered[p.Name] = true
	s.scoreboard[p.Name] += points
	p.Score += points

	return AnswerResult{
		PlayerName: p.Name,
		Answer:     answer,
		IsCorrect:  answer == q.CorrectOption,
		Awarded:    points,
		Total:      s.scoreboard[p.Name],
	}, nil
}

// removePlayerLocked drops a departed player's roster and scoreboard entries.
func (s *Session) removePlayerLocked(conn ConnID) (Player, bool) {
	p, ok := s.roster[conn]
	if !ok {
		return Player{}, false
	}

	delete(s.roster, conn)
	delete(s.delivered, conn)
	delete(s.scoreboard, p.Name)

	return *p, true
}

// hostLostLocked marks the host as away. The roster and scoreboard are kept.
func (s *Session) hostLostLocked() {
	s.hostConnected = false
	delete(s.delivered, s.hostConn)
}

// rejoinLocked reattaches conn under name. Roster entries left behind by
// earlier connections using the same identity are replaced, and their
// connections are returned so the caller can evict them from the room.
func (s *Session) rejoinLocked(conn ConnID, name string, isHost bool) []ConnID {
	var evicted []ConnID

	for c, p := range s.roster {
		if c != conn && p.Name == name {
			delete(s.roster, c)
			delete(s.delivered, c)
			evicted = append(evicted, c)
		}
	}

	if isHost {
		if s.hostConn != conn {
			if _, ok := s.roster[s.hostConn]; ok {
				delete(s.roster, s.hostConn)
				delete(s.delivered, s.hostConn)
				evicted = append(evicted, s.hostConn)
			}
		}
		s.hostConn = conn
		s.hostConnected = true

		if s.hostName != name {
			if !lo.ContainsBy(lo.Values(s.roster), func(p *Player) bool { return p.Name == s.hostName }) {
				delete(s.scoreboard, s.hostName)
			}
			s.hostName = name
		}
	} else if slices.Contains(evicted, s.hostConn) {
		s.hostConnected = false
	}

	score := s.scoreboard[name]
	s.addPlayerLocked(conn, name, isHost, score)

	return lo.Uniq(evicted)
}

// playersLocked returns the roster in join order.
func (s *Session) playersLocked() []Player {
	players := lo.Map(lo.Values(s.roster), func(p *Player, _ int) Player {
		return *p
	})

	slices.SortFunc(players, func(a, b Player) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return players
}

func (s *Session) scoresLocked() map[string]int {
	return maps.Clone(s.scoreboard)
}

// View is a read-only copy of a session's state.
type View struct {
	Code          string
	HostName      string
	HostConnected bool
	Phase         Phase
	Cursor        int
	Total         int
	Players       []Player
	Scores        map[string]int
	CreatedAt     time.Time
	LastActive    time.Time
}

// Snapshot copies the session's state under its lock.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		Code:          s.code,
		HostName:      s.hostName,
		HostConnected: s.hostConnected,
		Phase:         s.phase,
		Cursor:        s.cursor,
		Total:         len(s.questions),
		Players:       s.playersLocked(),
		Scores:        s.scoresLocked(),
		CreatedAt:     s.createdAt,
		LastActive:    s.lastActive,
	}
}

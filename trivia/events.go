/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

// Inbound event names, with the short aliases some clients send.
const (
	EventCreate       = "create_game"
	EventJoin         = "join_game"
	EventAddQuestion  = "add_question"
	EventStart        = "start_game"
	EventNextQuestion = "next_question"
	EventSubmitAnswer = "submit_answer"
	EventRejoin       = "rejoin_game"
)

var aliases = map[string]string{
	"create":  EventCreate,
	"join":    EventJoin,
	"start":   EventStart,
	"advance": EventNextQuestion,
	"rejoin":  EventRejoin,
}

// Outbound event names.
const (
	EventGameCreated      = "game_created"
	EventJoinSuccess      = "join_success"
	EventJoinError        = "join_error"
	EventRejoinError      = "rejoin_error"
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventHostDisconnected = "host_disconnected"
	EventQuestionAdded    = "question_added"
	EventQuestionError    = "question_error"
	EventStartError       = "start_error"
	EventGameStarted      = "game_started"
	EventNewQuestion      = "new_question"
	EventAnswerReceived   = "answer_received"
	EventAnswerError      = "answer_error"
	EventGameFinished     = "game_finished"
)

// Message is the envelope exchanged with clients in both directions.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type createRequest struct {
	HostName string `json:"host_name"`
}

type joinRequest struct {
	GamePin    string `json:"game_pin" validate:"required"`
	PlayerName string `json:"player_name" validate:"required,max=32"`
}

type rejoinRequest struct {
	GamePin    string `json:"game_pin" validate:"required"`
	PlayerName string `json:"player_name" validate:"required,max=32"`
	IsHost     bool   `json:"is_host"`
}

type addQuestionRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	TimeLimit     int      `json:"time_limit"`
}

type submitAnswerRequest struct {
	Answer         *int `json:"answer"`
	QuestionNumber *int `json:"question_number,omitempty"`
}

type GameCode struct {
	GamePin string `json:"game_pin"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}

type PlayerJoined struct {
	PlayerName string   `json:"player_name"`
	IsHost     bool     `json:"is_host"`
	Players    []Player `json:"players"`
}

type PlayerLeft struct {
	PlayerName string   `json:"player_name"`
	Players    []Player `json:"players"`
}

type QuestionAdded struct {
	QuestionCount int `json:"question_count"`
}

type QuestionPayload struct {
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"time_limit"`
	CorrectAnswer  int      `json:"correct_answer"`
}

type AnswerReceived struct {
	PlayerName string `json:"player_name"`
	Answer     int    `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
	Score      int    `json:"score"`
}

type GameFinished struct {
	FinalScores map[string]int `json:"final_scores"`
}

// GameStarted has no fields; it encodes as an empty object.
type GameStarted struct{}

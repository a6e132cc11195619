/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"cmp"
	"embed"
	"fmt"
	"html"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/quizbox/trivia"
	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
)

//go:embed assets/*
var assets embed.FS

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		switch strings.ToLower(filepath.Ext(fname)) {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := "User-agent: *\nDisallow: /lobby/\nDisallow: /game/\nDisallow: /leaderboard/\nDisallow: /qr/\n"

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

func writePage(cfg *Config, w http.ResponseWriter, status int, page string, errs chan<- error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if _, err := io.WriteString(w, page); err != nil {
		errs <- err
	}
}

// serveView renders a page that needs no game.
func serveView(cfg *Config, title, view, body string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writePage(cfg, w, http.StatusOK, newPage(cfg, title, view, body), errs)
	}
}

// serveGameView renders a page keyed by game code, or a not-found page
// when no such game is live.
func serveGameView(cfg *Config, registry *trivia.Registry, title, view string, render func(trivia.View) string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, err := registry.Lookup(ps.ByName("code"))
		if err != nil {
			writePage(cfg, w, http.StatusNotFound, errorPage(cfg, "Not Found", "Game not found"), errs)

			return
		}

		snap := s.Snapshot()

		writePage(cfg, w, http.StatusOK, newPage(cfg, title+" "+snap.Code, view, render(snap)), errs)
	}
}

const homeBody = `<main><h1>QuizBox</h1>
<p><a class="button" href="%[1]s/host">Host a game</a></p>
<p><a class="button" href="%[1]s/join">Join a game</a></p></main>`

const hostBody = `<main>
<section id="setup"><h1>Host a game</h1>
<input id="host-name" placeholder="Your name" maxlength="32"><button id="create">Create game</button></section>
<section id="lobby" hidden><h1>Game PIN: <span id="game-pin"></span></h1>
<img id="qr" alt="Join QR code" width="160" height="160">
<form id="question-form"><input id="question" placeholder="Question">
<div id="options"></div>
<input id="time-limit" type="number" min="1" max="3600" value="30"> seconds
<button type="submit">Add question</button></form>
<p><span id="question-count">0</span> questions</p>
<button id="start">Start game</button> <button id="next" hidden>Next question</button>
<p id="status" class="status"></p></section>
<section id="play"><div id="question-container"></div><ul id="feed"></ul></section>
<ul id="players-list"></ul></main>`

const joinBody = `<main><h1>Join a game</h1>
<input id="join-pin" placeholder="Game PIN" inputmode="numeric" maxlength="6">
<input id="join-name" placeholder="Your name" maxlength="32">
<button id="join">Join</button><p id="status" class="status"></p></main>`

const gameBody = `<main><h1>Game <span id="game-pin">%s</span></h1>
<p id="status" class="status"></p>
<section id="play"><div id="question-container"><p>Waiting for the host to start...</p></div>
<p id="answer-feedback"></p><ul id="feed"></ul></section>
<ul id="players-list"></ul></main>`

func renderLobby(v trivia.View) string {
	return fmt.Sprintf(gameBody, v.Code)
}

func renderLeaderboard(v trivia.View) string {
	type entry struct {
		name  string
		score int
	}

	entries := lo.MapToSlice(v.Scores, func(name string, score int) entry {
		return entry{name: name, score: score}
	})
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<main><h1>Leaderboard %s</h1><p>%s, question %d of %d</p><ol id="leaderboard">`,
		v.Code, v.Phase, min(v.Cursor+1, v.Total), v.Total))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("<li>%s: %d</li>", html.EscapeString(e.name), e.score))
	}
	b.WriteString(`</ol></main>`)

	return b.String()
}

func registerViews(cfg *Config, registry *trivia.Registry, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveView(cfg, "QuizBox", "", fmt.Sprintf(homeBody, cfg.prefix), errs))
	mux.GET(cfg.prefix+"/host", serveView(cfg, "Host a game", "host", hostBody, errs))
	mux.GET(cfg.prefix+"/join", serveView(cfg, "Join a game", "join", joinBody, errs))
	mux.GET(cfg.prefix+"/lobby/:code", serveGameView(cfg, registry, "Lobby", "lobby", renderLobby, errs))
	mux.GET(cfg.prefix+"/game/:code", serveGameView(cfg, registry, "Game", "game", renderLobby, errs))
	mux.GET(cfg.prefix+"/leaderboard/:code", serveGameView(cfg, registry, "Leaderboard", "", renderLeaderboard, errs))
}

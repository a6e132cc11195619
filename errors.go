/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// gameLogger adapts logf for the trivia package.
func gameLogger(cfg *Config) func(string, ...any) {
	return func(format string, args ...any) {
		logf(cfg, format, args...)
	}
}

// newPage renders a minimal document. body is trusted markup; title is escaped.
func newPage(cfg *Config, title, view, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/trivia/app.css">`, cfg.prefix))
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf(`<body data-view="%s" data-prefix="%s">`, view, html.EscapeString(cfg.prefix)))
	htmlBody.WriteString(body)
	if view != "" {
		htmlBody.WriteString(fmt.Sprintf(`<script src="%s/assets/trivia/app.js"></script>`, cfg.prefix))
	}
	htmlBody.WriteString(`</body></html>`)

	return htmlBody.String()
}

func errorPage(cfg *Config, title, message string) string {
	return newPage(cfg, title, "", fmt.Sprintf(`<main><h1>%s</h1><p><a href="%s/">Back to start</a></p></main>`,
		html.EscapeString(message), cfg.prefix))
}

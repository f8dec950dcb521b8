package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes a command handler and the middleware wrapping it.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	authorized := []tgbot.Middleware{AuthorizedOnly(deps)}

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  authorized,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  authorized,
	}
	handlers["/count"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "count",
		Handler:     NewCountHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  authorized,
	}

	return handlers
}

// NewDefaultHandler returns the handler for every message that is not a
// command: links in it are bookmarked.
func NewDefaultHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return AuthorizedOnly(deps)(NewLinkHandler(deps))
}

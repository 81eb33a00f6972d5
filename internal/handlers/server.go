// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/memorama/internal/lobby"
	"github.com/jason-s-yu/memorama/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewMux wires every route behind the request logger.
func NewMux(logger *logrus.Logger, registry *lobby.Registry, clientBuffer int) *http.ServeMux {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("GET /healthz", logged(HealthHandler(registry)))
	mux.Handle("GET /lobbies/{code}", logged(LobbyInfoHandler(registry)))
	mux.Handle("GET /ws", logged(WSHandler(logger, registry, clientBuffer)))
	return mux
}

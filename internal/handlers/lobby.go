// internal/handlers/lobby.go
package handlers

import (
	"net/http"
	"time"

	"github.com/jason-s-yu/memorama/internal/lobby"
	"github.com/jason-s-yu/memorama/internal/models"
)

// LobbyInfo is the public view of a lobby.
type LobbyInfo struct {
	Code      string               `json:"code"`
	CreatedAt time.Time            `json:"createdAt"`
	Members   []models.RosterEntry `json:"members"`
	Capacity  int                  `json:"capacity"`
	InMatch   bool                 `json:"inMatch"`
}

// LobbyInfoHandler serves GET /lobbies/{code}.
func LobbyInfoHandler(registry *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := lobby.NormalizeCode(r.PathValue("code"))
		if !ok {
			http.Error(w, "invalid lobby code", http.StatusBadRequest)
			return
		}
		lob := registry.Lookup(code)
		if lob == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, LobbyInfo{
			Code:      lob.Code,
			CreatedAt: lob.CreatedAt,
			Members:   lob.Roster(),
			Capacity:  lobby.MaxMembers,
			InMatch:   lob.Engine() != nil,
		})
	}
}

// HealthHandler serves GET /healthz.
func HealthHandler(registry *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"lobbies": registry.Count(),
		})
	}
}

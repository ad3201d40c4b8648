// internal/server/router.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wordclash/server/internal/cache"
	"github.com/wordclash/server/internal/models"
	"github.com/wordclash/server/internal/store"
	"github.com/wordclash/server/internal/ws"
)

// roomView is the public listing entry for a room. Settings and game state
// stay private to the room's own connections.
type roomView struct {
	ID             uuid.UUID         `json:"id"`
	Code           string            `json:"code"`
	Mode           models.GameMode   `json:"mode"`
	Difficulty     models.Difficulty `json:"difficulty"`
	CurrentPlayers int               `json:"currentPlayers"`
	MaxPlayers     int               `json:"maxPlayers"`
	IsActive       bool              `json:"isActive"`
}

// NewRouter builds the HTTP surface: the websocket upgrade route plus the
// thin REST read layer over rooms and profiles.
func NewRouter(st store.Store, gateway *ws.Gateway) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws", func(c *gin.Context) {
		gateway.HandleWS(c.Writer, c.Request)
	})

	api := r.Group("/api")
	{
		api.GET("/rooms", func(c *gin.Context) {
			rooms, err := st.ListRooms(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
				return
			}
			out := make([]roomView, 0, len(rooms))
			for _, room := range rooms {
				out = append(out, roomView{
					ID:             room.ID,
					Code:           room.Code,
					Mode:           room.Mode,
					Difficulty:     room.Difficulty,
					CurrentPlayers: room.CurrentPlayers,
					MaxPlayers:     room.MaxPlayers,
					IsActive:       room.IsActive,
				})
			}
			c.JSON(http.StatusOK, gin.H{"rooms": out})
		})

		api.GET("/users/:id/stats", func(c *gin.Context) {
			userID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
				return
			}
			stats, err := st.GetStats(c.Request.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrUserNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
				return
			}
			c.JSON(http.StatusOK, stats)
		})

		api.GET("/leaderboard", func(c *gin.Context) {
			entries, err := cache.TopScores(c.Request.Context(), 20)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
		})
	}

	return r
}

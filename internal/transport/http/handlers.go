// Package http serves the read-only REST view of rooms, history and
// membership.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const queryTimeout = 5 * time.Second

// RoomResponse is a durable room plus its live member count.
type RoomResponse struct {
	domain.Room
	UserCount int `json:"userCount"`
}

type UserResponse struct {
	UserID   domain.UserID `json:"userId"`
	JoinedAt time.Time     `json:"joinedAt"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

type Handlers struct {
	Store core.Store
	Rooms core.Registry
	// Conns reports open websocket connections.
	Conns func() int
}

func (h *Handlers) Register(r gin.IRouter, api gin.IRouter) {
	r.GET("/healthz", h.health)

	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:code", h.getRoom)
	api.GET("/rooms/:code/messages", h.roomMessages)
	api.GET("/rooms/:code/users", h.roomUsers)
}

func (h *Handlers) health(c *gin.Context) {
	conns := 0
	if h.Conns != nil {
		conns = h.Conns()
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Rooms: h.Rooms.Len(), Connections: conns})
}

func (h *Handlers) listRooms(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	rooms, err := h.Store.ListRooms(ctx)
	if err != nil {
		h.fail(c, "list rooms", err)
		return
	}
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomResponse{Room: r, UserCount: h.Rooms.CountOf(r.Code)})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) getRoom(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	room, ok := h.room(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, RoomResponse{Room: *room, UserCount: h.Rooms.CountOf(room.Code)})
}

func (h *Handlers) roomMessages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	room, ok := h.room(ctx, c)
	if !ok {
		return
	}
	msgs, err := h.Store.GetMessagesByRoomCode(ctx, room.Code)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handlers) roomUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()
	room, ok := h.room(ctx, c)
	if !ok {
		return
	}
	members, err := h.Store.GetUsersInRoomByCode(ctx, room.Code)
	if err != nil {
		h.fail(c, "members", err)
		return
	}
	out := make([]UserResponse, 0, len(members))
	for _, m := range members {
		out = append(out, UserResponse{UserID: m.UserID, JoinedAt: m.Joined})
	}
	c.JSON(http.StatusOK, out)
}

// room resolves :code or writes the error response itself.
func (h *Handlers) room(ctx context.Context, c *gin.Context) (*domain.Room, bool) {
	room, err := h.Store.GetRoomByCode(ctx, domain.RoomCode(c.Param("code")))
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	if err != nil {
		h.fail(c, "get room", err)
		return nil, false
	}
	return room, true
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	log.Error().Err(err).Str("module", "transport.http").Str("op", op).Str("path", c.FullPath()).Msg("query failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// Dependency is one backing service probed by /readyz.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	deps []Dependency
}

func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func PostgresDependency(pool *pgxpool.Pool) Dependency {
	return Dependency{Name: "postgres", Check: pool.Ping}
}

func RedisDependency(client *redis.Client) Dependency {
	return Dependency{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func RabbitMQDependency(conn *amqp.Connection) Dependency {
	return Dependency{Name: "rabbitmq", Check: func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	respond(c, http.StatusOK, "ok", nil)
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	status := make(map[string]string, len(h.deps))
	ready := true

	for _, d := range h.deps {
		if err := d.Check(ctx); err != nil {
			status[d.Name] = "unavailable"
			ready = false
			continue
		}
		status[d.Name] = "connected"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "not ready", "data": status})
		return
	}
	respond(c, http.StatusOK, "ready", status)
}

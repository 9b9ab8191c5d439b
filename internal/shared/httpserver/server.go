package httpserver

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	sharedws "github.com/Amilali09/Auction-Simulator/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

type Server struct {
	app *fiber.App
}

func NewServer() *Server {
	app := fiber.New()

	// Request logging middleware
	app.Use(func(c *fiber.Ctx) error {
		log.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
		)
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return &Server{app: app}
}

// MountWebsocket wires the /ws endpoint: every accepted connection gets
// a client with a fresh ID, its write pump, and a blocking read pump.
func (s *Server) MountWebsocket(ctx context.Context, hub *sharedws.Hub) {
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client := &sharedws.Client{
			Hub:  hub,
			Conn: conn,
			Send: make(chan []byte, 64),
			ID:   uuid.New().String(),
		}
		hub.RegisterClient(client)
		go client.WritePump(ctx)
		// ReadPump blocks until the connection closes; returning from
		// this handler tears the connection down.
		client.ReadPump(ctx)
	}))
}

func (s *Server) Start(addr string) error {
	// Clean shutdown on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		<-quit

		log.Info("Shutting down HTTP server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.app.ShutdownWithContext(ctx)
	}()

	log.Info("HTTP server started", zap.String("addr", addr))
	return s.app.Listen(addr)
}

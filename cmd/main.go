package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/application"
	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	auctionws "github.com/Amilali09/Auction-Simulator/internal/auction/infra/websocket"
	"github.com/Amilali09/Auction-Simulator/internal/shared/config"
	"github.com/Amilali09/Auction-Simulator/internal/shared/httpserver"
	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	sharedws "github.com/Amilali09/Auction-Simulator/internal/shared/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting auction simulator server...")

	cfg := config.Load()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal("Failed to load player catalog", zap.Error(err))
	}
	log.Info("Player catalog loaded", zap.Int("players", cat.Len()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	hub := sharedws.NewHub()
	go hub.Run(ctx)

	registry := application.NewRoomRegistry(clock, cfg.RoomTTL)
	registry.StartReaper(ctx)

	publisher := auctionws.NewPublisher(hub)
	service := application.NewAuctionService(registry, publisher, cat, clock, rng)

	handler := auctionws.NewAuctionWSHandler(service, hub)
	go handler.ListenForMessages(ctx)

	server := httpserver.NewServer()
	server.MountWebsocket(ctx, hub)
	if err := server.Start(cfg.Addr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}

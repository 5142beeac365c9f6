package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyrowin/chatrelay/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fmt.Println("Starting chat relay...")

	config := server.NewConfigFromEnv()

	hub := server.NewHub(config)
	go hub.Run()

	listener, err := server.Listen(config)
	if err != nil {
		log.Printf("Error => %v", err)
		os.Exit(1)
	}
	log.Printf("chat-server listening at <%s> (backlog %d, exclude by %s)",
		config.ListenAddr(), config.Backlog, config.ExcludeBy)

	var httpServer *http.Server
	if config.HTTPAddr != "" {
		httpServer = server.CreateServer(config.HTTPAddr, server.SetupRoutes(hub, config))
		go func() {
			if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Error => %v", err)
				os.Exit(1)
			}
		}()
	}

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(listener, hub)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case s := <-sig:
		log.Printf("Got %s, stopping", s)
	case err := <-served:
		if err != nil {
			log.Printf("Error => %v", err)
			exitCode = 1
		}
	}

	if httpServer != nil {
		_ = server.ShutdownServer(httpServer, shutdownTimeout)
	}
	_ = listener.Close()
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
	}
	os.Exit(exitCode)
}

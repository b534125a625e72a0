package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roffe/gobafang/cmd/bafangtool/cmd"
)

const shutdownGrace = 45 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-quitChan
		log.Printf("got %v, shutting down", s)
		cancel()
		// a unit that never answers must not keep the tool alive
		<-time.After(shutdownGrace)
		log.Fatal("shutdown took too long, forcefully exiting")
	}()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

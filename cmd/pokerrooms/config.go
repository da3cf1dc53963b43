package main

import (
	"fmt"
	"os"

	"github.com/lox/pokerrooms/internal/server"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Check ConfigCheckCmd `cmd:"" help:"Validate a configuration file and print the effective settings"`
}

type ConfigCheckCmd struct {
	Path string `arg:"" optional:"" default:"pokerrooms.hcl" help:"Path to HCL configuration file"`
}

func (c *ConfigCheckCmd) Run() error {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		fmt.Printf("%s not found, using defaults\n", c.Path)
	}
	cfg, err := server.LoadConfig(c.Path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	timings := cfg.Timings()
	rooms := cfg.Rooms()
	fmt.Printf("address:          %s\n", cfg.GetServerAddress())
	fmt.Printf("log level:        %s\n", cfg.Server.LogLevel)
	fmt.Printf("storage:          %s\n", cfg.Storage.Driver)
	fmt.Printf("room defaults:    %d seats, blinds %d/%d, %d chips\n",
		rooms.MaxPlayers, rooms.SmallBlind, rooms.BigBlind, rooms.StartingChips)
	fmt.Printf("confirm timeout:  %s\n", timings.ConfirmTimeout)
	fmt.Printf("reveal delays:    %s hole, %s street\n", timings.RevealHoleDelay, timings.RevealStreetDelay)
	fmt.Printf("idle room ttl:    %s\n", cfg.IdleRoomTTL())
	if cfg.NATS != nil {
		fmt.Printf("nats:             %s (%s.<room>.state)\n", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	}
	fmt.Println("configuration OK")
	return nil
}

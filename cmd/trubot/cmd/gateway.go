package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kamir/trubot/internal/bus"
	"github.com/kamir/trubot/internal/channels"
	"github.com/kamir/trubot/internal/chat"
	"github.com/kamir/trubot/internal/config"
	"github.com/kamir/trubot/internal/gemini"
	"github.com/kamir/trubot/internal/mirror"
	"github.com/kamir/trubot/internal/router"
	"github.com/kamir/trubot/internal/rules"
	"github.com/kamir/trubot/internal/timeline"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the bot gateway (WhatsApp)",
	Run:   runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(cmd *cobra.Command, args []string) {
	printHeader("trubot Gateway")
	fmt.Println("Starting trubot gateway...")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Providers.Gemini.APIKey == "" {
		fmt.Println("Warning: no Gemini API key configured; chat turns will fail.")
	}

	// 2. Timeline (exchange log)
	timelinePath := filepath.Join(cfg.Paths.StateDir, "timeline.db")
	timeSvc, err := timeline.NewService(timelinePath)
	if err != nil {
		fmt.Printf("Failed to init timeline: %v\n", err)
		os.Exit(1)
	}
	defer timeSvc.Close()

	// 3. Bus
	msgBus := bus.NewMessageBus()

	// 4. Backend, rules, sessions
	backend := gemini.NewClient(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.APIBase)
	ruleStore := rules.NewStore(cfg.Paths.RulesFile)
	sessions := chat.NewRegistry(func() *chat.Session {
		return chat.NewSession(backend, cfg.Model.Candidates, cfg.Model.MaxTurns, gemini.GenerationConfig{
			Temperature:     cfg.Model.Temperature,
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
		})
	})

	// 5. Mirror (optional)
	var pub *mirror.Publisher
	if cfg.Mirror.Enabled && cfg.Mirror.KafkaBrokers != "" {
		pub = mirror.NewPublisher(cfg.Mirror.KafkaBrokers, cfg.Mirror.Name)
		defer pub.Close()
		fmt.Println("Exchange mirror enabled, topic:", mirror.Topic(cfg.Mirror.Name))
	}

	// 6. Channels
	wa := channels.NewWhatsAppChannel(cfg.Channels.WhatsApp, cfg.Paths.StateDir, msgBus, timeSvc)

	// 7. Router
	opts := router.Options{
		FbPrefix:       cfg.Bot.FbPrefix,
		TbPrefix:       cfg.Bot.TbPrefix,
		MaxReplyLength: cfg.Bot.MaxReplyLength,
		Rules:          ruleStore,
		Sessions:       sessions,
		Timeline:       timeSvc,
		Mirror:         pub,
	}
	if cfg.Channels.WhatsApp.Enabled {
		opts.Typing = wa
	}
	rt := router.New(opts)

	// 8. Start everything
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := wa.Start(ctx); err != nil {
		fmt.Printf("Failed to start WhatsApp: %v\n", err)
	}
	defer wa.Stop()

	go msgBus.DispatchOutbound(ctx)

	// Inbound loop: each message routes on its own goroutine so a slow
	// backend call in one chat never stalls another. Outbound chunks for a
	// single message are published in order from that one goroutine and the
	// per-channel dispatcher preserves the order on the wire.
	go func() {
		for {
			msg, err := msgBus.ConsumeInbound(ctx)
			if err != nil {
				return
			}
			go func() {
				for _, out := range rt.Handle(ctx, msg) {
					msgBus.PublishOutbound(out)
				}
			}()
		}
	}()

	fmt.Println("Gateway running. Press Ctrl+C to stop.")
	<-sigChan
	fmt.Println("\nShutting down...")
}

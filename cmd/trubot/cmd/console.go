package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	prompt "github.com/c-bata/go-prompt"
	"github.com/kamir/trubot/internal/chat"
	"github.com/kamir/trubot/internal/config"
	"github.com/kamir/trubot/internal/gemini"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with Gemini in an interactive console session",
	Run:   runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

var consoleSuggestions = []prompt.Suggest{
	{Text: "/clear", Description: "start a new conversation"},
	{Text: "/quit", Description: "exit"},
}

func runConsole(cmd *cobra.Command, args []string) {
	printHeader("trubot Console")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	apiKey := cfg.Providers.Gemini.APIKey
	if apiKey == "" {
		fmt.Println("Enter your Gemini API key (from https://aistudio.google.com/apikey):")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		apiKey = strings.TrimSpace(line)
	}
	if apiKey == "" {
		fmt.Println("No API key provided. Set GEMINI_API_KEY or GOOGLE_API_KEY.")
		os.Exit(1)
	}

	backend := gemini.NewClient(apiKey, cfg.Providers.Gemini.APIBase)
	session := chat.NewSession(backend, cfg.Model.Candidates, cfg.Model.MaxTurns, gemini.GenerationConfig{
		Temperature:     cfg.Model.Temperature,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
	})

	fmt.Println("Commands: /clear  → new conversation  |  /quit  → exit")
	fmt.Println()

	var quit atomic.Bool
	executor := func(in string) {
		input := strings.TrimSpace(in)
		if input == "" {
			return
		}
		switch strings.ToLower(input) {
		case "/quit":
			fmt.Println("Bye.")
			quit.Store(true)
			return
		case "/clear":
			session.Clear()
			fmt.Println("Conversation cleared.")
			return
		}
		reply := session.Chat(context.Background(), input)
		fmt.Println("Gemini:", reply)
		fmt.Println()
	}

	completer := func(doc prompt.Document) []prompt.Suggest {
		text := strings.TrimLeft(doc.TextBeforeCursor(), " \t")
		if !strings.HasPrefix(text, "/") {
			return nil
		}
		return prompt.FilterHasPrefix(consoleSuggestions, doc.GetWordBeforeCursor(), true)
	}

	p := prompt.New(
		executor,
		completer,
		prompt.OptionTitle("trubot"),
		prompt.OptionPrefix("You: "),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			return quit.Load()
		}),
	)
	p.Run()
}

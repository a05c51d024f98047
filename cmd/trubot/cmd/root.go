package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trubot",
	Short: "trubot is a Gemini chat-relay bot with a persisted rule sheet",
	Long: "trubot forwards chat messages to Gemini and relays the replies.\n" +
		"Plain mode (tb) is straight chat; rules mode (fb) injects a\n" +
		"user-editable rule sheet into each new conversation.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func printHeader(title string) {
	c := color.New(color.FgCyan, color.Bold)
	c.Println(title)
	fmt.Println(strings.Repeat("─", len([]rune(title))+2))
}

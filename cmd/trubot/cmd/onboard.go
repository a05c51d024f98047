package cmd

import (
	"fmt"
	"os"

	"github.com/kamir/trubot/internal/config"
	"github.com/spf13/cobra"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	Run:   runOnboard,
}

var onboardForce bool

func init() {
	onboardCmd.Flags().BoolVarP(&onboardForce, "force", "f", false, "Overwrite existing config.json")
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, args []string) {
	printHeader("trubot Onboard")
	fmt.Println("Initializing trubot...")

	path, _ := config.ConfigPath()

	// If config already exists, do not overwrite unless -f/--force is set.
	if _, err := os.Stat(path); err == nil && !onboardForce {
		fmt.Printf("Config already exists at: %s\n", path)
		fmt.Println("Use --force (-f) to overwrite.")
		return
	}

	cfg := config.DefaultConfig()
	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
	} else {
		fmt.Printf("Config created at: %s\n", path)
	}

	if err := config.EnsureDir(config.ExpandPath(cfg.Paths.StateDir)); err != nil {
		fmt.Printf("Error creating state dir: %v\n", err)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit config.json to add your Gemini API key (or set GEMINI_API_KEY).")
	fmt.Println("2. Run 'trubot console' to chat, or 'trubot gateway' to serve WhatsApp.")
}

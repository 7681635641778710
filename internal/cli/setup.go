package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimbus-ai/nimbus/internal/config"
	"github.com/nimbus-ai/nimbus/internal/model"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default config file and check the environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

// runSetup writes a default config (without clobbering an existing one),
// creates the data directories and probes the Ollama endpoint.
func runSetup() error {
	path := flagConfig
	if path == "" {
		path = config.DefaultConfigFile
	}

	cfg := config.Default()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s, leaving it alone.\n", path)
		loaded, err := config.Load(path)
		if err == nil {
			cfg = loaded
		}
	} else {
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s.\n", path)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}
	fmt.Printf("Data directory ready at %s.\n", cfg.Paths.DataDir)

	client := model.NewOllamaClient(&model.OllamaConfig{
		URL:     cfg.OllamaURL,
		Model:   cfg.Model,
		Enabled: true,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		fmt.Printf("Ollama is not reachable at %s (%v).\n", cfg.OllamaURL, err)
		fmt.Println("The assistant still works; questions will use the knowledge base only.")
	} else {
		fmt.Printf("Ollama is reachable at %s (model %s).\n", cfg.OllamaURL, cfg.Model)
	}

	if cfg.Weather.APIKey == "" {
		fmt.Println("Tip: add an OpenWeatherMap key under weather.api_key to enable weather.")
	}
	return nil
}

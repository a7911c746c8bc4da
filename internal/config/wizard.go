package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docqa! Let's configure your project.")
	fmt.Println()

	cfg := DefaultConfig()

	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory for document artifacts",
		Default: cfg.DataDir,
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	cfg.DataDir = dataDir

	embPrompt := promptui.Select{
		Label: "Select embedding model",
		Items: []string{"text-embedding-3-small", "text-embedding-3-large", "text-embedding-ada-002"},
	}
	_, embModel, err := embPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	cfg.Embedding.Model = embModel

	qaPrompt := promptui.Select{
		Label: "Select answer model",
		Items: []string{"gpt-4o-mini", "gpt-4o"},
	}
	_, qaModel, err := qaPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("answer model: %w", err)
	}
	cfg.QA.Model = qaModel
	cfg.NER.Model = qaModel

	cachePrompt := promptui.Select{
		Label: "Enable the Redis response cache",
		Items: []string{"yes", "no"},
	}
	cacheIdx, _, err := cachePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache selection: %w", err)
	}
	cfg.Cache.Enabled = cacheIdx == 0
	cfg.Cache.SemanticEnabled = cfg.Cache.Enabled

	if cfg.Cache.Enabled {
		redisPrompt := promptui.Prompt{
			Label:   "Redis URL",
			Default: cfg.Cache.RedisURL,
		}
		redisURL, err := redisPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		cfg.Cache.RedisURL = redisURL
	}

	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			_, err := strconv.Atoi(s)
			return err
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	return cfg, nil
}

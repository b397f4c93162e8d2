package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to support-router! Let's configure your deployment.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "none (offline keyword routing)"},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	if providerIdx == 1 {
		cfg.LLM.Provider = ProviderNone
		cfg.Embedding.Provider = ProviderNone
	}

	if cfg.LLM.Provider == ProviderOpenAI {
		modelPrompt := promptui.Prompt{Label: "Chat model", Default: cfg.LLM.Model}
		if cfg.LLM.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		baseURLPrompt := promptui.Prompt{Label: "OpenAI-compatible base URL (blank for api.openai.com)"}
		if cfg.LLM.BaseURL, err = baseURLPrompt.Run(); err != nil {
			return nil, fmt.Errorf("base url: %w", err)
		}
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}

	backendPrompt := promptui.Select{
		Label: "Session backend",
		Items: []string{string(SessionMemory), string(SessionRedis)},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session backend: %w", err)
	}
	cfg.Session.Backend = SessionBackend(backend)
	if cfg.Session.Backend == SessionRedis {
		addrPrompt := promptui.Prompt{Label: "Redis address", Default: cfg.Session.Redis.Addr}
		if cfg.Session.Redis.Addr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis addr: %w", err)
		}
	}

	dbPrompt := promptui.Prompt{Label: "Orders database path", Default: cfg.Orders.DBPath}
	if cfg.Orders.DBPath, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("orders db: %w", err)
	}

	policyPrompt := promptui.Prompt{Label: "Policy documents directory", Default: cfg.Policies.Dir}
	if cfg.Policies.Dir, err = policyPrompt.Run(); err != nil {
		return nil, fmt.Errorf("policies dir: %w", err)
	}
	cfg.Policies.Dir = strings.TrimSpace(cfg.Policies.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.LLM.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or .env) before running supportrouter serve.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

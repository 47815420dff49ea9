package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/config"
	"github.com/matsen/papersage/internal/paper"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long: `Show the configuration sage would run with: vault paths, model
and classifier keywords. The API key itself is never printed.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	keywords, err := cfg.KeywordSet()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	resp := ConfigResponse{
		VaultPath:   cfg.VaultPath,
		ResearchDir: cfg.ResearchPath(),
		IntakeDir:   cfg.IntakePath(),
		PromptsDir:  cfg.PromptsPath(),
		LedgerPath:  cfg.LedgerPath(),
		ConfigFile:  config.GlobalConfigPath(),
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		BaseURL:     cfg.BaseURL,
		LogLevel:    cfg.LogLevel,
		APIKeySet:   cfg.APIKey != "",
		Keywords:    make(map[string][]string, len(paper.Categories)),
	}
	for _, c := range paper.Categories {
		resp.Keywords[string(c)] = keywords.Keywords(c)
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Printf("vault:       %s\n", resp.VaultPath)
	fmt.Printf("research:    %s\n", resp.ResearchDir)
	fmt.Printf("intake:      %s\n", resp.IntakeDir)
	fmt.Printf("prompts:     %s\n", resp.PromptsDir)
	fmt.Printf("history:     %s\n", resp.LedgerPath)
	fmt.Printf("config file: %s\n", resp.ConfigFile)
	fmt.Printf("model:       %s\n", resp.Model)
	fmt.Printf("max tokens:  %d\n", resp.MaxTokens)
	fmt.Printf("base url:    %s\n", resp.BaseURL)
	fmt.Printf("log level:   %s\n", resp.LogLevel)
	if resp.APIKeySet {
		fmt.Println("api key:     set")
	} else {
		fmt.Println("api key:     not set")
	}
	fmt.Println("keywords:")
	for _, c := range paper.Categories {
		fmt.Printf("  %-12s %s\n", c+":", strings.Join(resp.Keywords[string(c)], ", "))
	}
	return nil
}

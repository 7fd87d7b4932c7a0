package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/gemini-sub-translator/internal/config"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var apiKey string
	var offline bool

	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"listmodels"},
		Short:   "List available Gemini models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(config.WithAPIKeys(apiKey, ""))
			if err != nil {
				return err
			}

			models := llm.KnownModels()
			source := "built-in list"
			if !offline && cfg.Gemini.APIKey != "" {
				client, err := llm.NewClient(cfg.LLMConfig(), newGeminiBackend(cfg))
				if err != nil {
					return err
				}
				listed, err := client.ListModels(cmd.Context(), cfg.Gemini.APIKey)
				switch {
				case err != nil:
					log.Warn("Falling back to the built-in model list: %v", err)
				case len(listed) > 0:
					models = listed
					source = "Gemini API"
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderModelsTable(models))
			fmt.Fprintf(out, "%d models (%s)\n", len(models), source)
			return nil
		},
	}

	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "Gemini API key (or GEMINI_API_KEY)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the built-in list without calling the API")
	return cmd
}

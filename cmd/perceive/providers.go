package main

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/perceive/internal/api"
	"github.com/jackzampolin/perceive/internal/providers"
)

// ProviderInfo describes one configured provider.
type ProviderInfo struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Ready   bool   `json:"ready" yaml:"ready"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured vision providers",
	Long: `List providers from the config file. A provider is ready when it is
enabled and has what it needs to connect (OpenAI providers need an API key).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rc := mgr.Get().ToProviderRegistryConfig()
		registry := providers.NewRegistryFromConfig(rc, logger)
		defaultName, _, _ := registry.Default()

		infos := make([]ProviderInfo, 0, len(rc.Providers))
		for _, name := range slices.Sorted(maps.Keys(rc.Providers)) {
			p := rc.Providers[name]
			infos = append(infos, ProviderInfo{
				Name:    name,
				Type:    p.Type,
				Model:   p.Model,
				BaseURL: p.BaseURL,
				Enabled: p.Enabled,
				Ready:   registry.Has(name),
				Default: name == defaultName,
			})
		}
		return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), infos)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/config"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/features"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/suggest"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/syncconfig"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage gnd configuration",
	GroupID: "system",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a config value (environment overrides applied)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := syncconfig.Get(args[0])
		if err != nil {
			reportConfigError(args[0], err)
			return err
		}
		output.Info("%s", val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.Set(args[0], args[1]); err != nil {
			reportConfigError(args[0], err)
			return err
		}
		output.Success("%s = %s", args[0], args[1])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print every config key and its resolved value",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range syncconfig.Keys() {
			val, err := syncconfig.Get(key)
			if err != nil {
				output.Error("%s: %v", key, err)
				return err
			}
			output.Info("%-22s %s", key, val)
		}
		return nil
	},
}

func reportConfigError(key string, err error) {
	if errors.Is(err, syncconfig.ErrUnknownKey) {
		output.Error("unknown config key: %s%s", key, suggest.Hint(key, syncconfig.Keys()))
		output.Info("Valid keys: %s", strings.Join(syncconfig.Keys(), ", "))
		return
	}
	output.Error("%v", err)
}

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Inspect and toggle project feature flags",
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feature flags and where their value comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, f := range features.ListAll() {
			enabled, source := features.Resolve(getBaseDir(), f.Name)
			output.Info("%-18s %-5v (%s)  %s", f.Name, enabled, source, f.Description)
		}
		return nil
	},
}

var featureSetCmd = &cobra.Command{
	Use:   "set <name> <true|false>",
	Short: "Set a feature flag in the project config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := knownFeature(args[0])
		if err != nil {
			return err
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			output.Error("invalid bool value %q (use true/false/1/0)", args[1])
			return err
		}
		if err := config.SetFeatureFlag(getBaseDir(), name, enabled); err != nil {
			output.Error("save config: %v", err)
			return err
		}
		output.Success("%s = %v", name, enabled)
		return nil
	},
}

var featureUnsetCmd = &cobra.Command{
	Use:   "unset <name>",
	Short: "Remove a feature flag from the project config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := knownFeature(args[0])
		if err != nil {
			return err
		}
		if err := config.UnsetFeatureFlag(getBaseDir(), name); err != nil {
			output.Error("save config: %v", err)
			return err
		}
		output.Success("%s unset", name)
		return nil
	},
}

func knownFeature(name string) (string, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if features.IsKnownFeature(name) {
		return name, nil
	}
	names := make([]string, 0)
	for _, f := range features.ListAll() {
		names = append(names, f.Name)
	}
	output.Error("unknown feature: %s%s", name, suggest.Hint(name, names))
	return "", fmt.Errorf("unknown feature: %s", name)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd, featureCmd)
	featureCmd.AddCommand(featureListCmd, featureSetCmd, featureUnsetCmd)
}

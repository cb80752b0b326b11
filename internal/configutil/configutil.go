// Package configutil merges cobra flags with viper configuration: an
// explicitly set flag wins, otherwise the bound viper key answers.
package configutil

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func FlagOrViperString(cmd *cobra.Command, flagName, viperKey string) string {
	if cmd != nil && flagName != "" && cmd.Flags().Changed(flagName) {
		v, err := cmd.Flags().GetString(flagName)
		if err == nil {
			return v
		}
	}
	if viperKey == "" {
		return ""
	}
	return viper.GetString(viperKey)
}

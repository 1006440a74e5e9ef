package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var styleLocaleFlag string

// styleCmd represents the style command.
var styleCmd = newStyleCmd()

func newStyleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style [root]",
		Short: "Check the exercise's code style",
		Long:  "Runs the ecosystem's style checker, when one exists, and prints its findings per file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			result, err := plugin.CheckCodeStyle(cmd.Context(), root, viper.GetString(localeConfigKey))
			if err != nil {
				return err
			}

			ui.DisplayStyleResult(cmd.Context(), result)

			return nil
		},
	}

	cmd.Flags().StringVarP(&styleLocaleFlag, localeFlagName, "l", viper.GetString(localeConfigKey), "locale passed to the style checker")
	bindFlagToConfig(cmd.Flags().Lookup(localeFlagName), localeConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(styleCmd)
}

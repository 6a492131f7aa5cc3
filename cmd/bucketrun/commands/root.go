package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bucketrun/bucketrun/cmd/bucketrun/cli"
	"github.com/bucketrun/bucketrun/common/version"
)

const (
	DefaultConfigDir = "~/"
	ConfigFileName   = ".bucketrun"
)

var defaultConfigFilePath = fmt.Sprintf("%s%s.yml", DefaultConfigDir, ConfigFileName)

// GlobalConfig holds the flags every subcommand inherits from RootCmd.
type GlobalConfig struct {
	Debug          bool
	JSON           bool
	ConfigFilePath string
}

var Global = &GlobalConfig{}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(
		&Global.ConfigFilePath,
		"config",
		"c",
		defaultConfigFilePath,
		"The config file to use when executing commands.")

	RootCmd.PersistentFlags().BoolVarP(
		&Global.Debug,
		"debug",
		"d",
		false,
		"Enable verbose debug output.")

	RootCmd.PersistentFlags().BoolVarP(
		&Global.JSON,
		"json",
		"j",
		false,
		"Enable structured JSON output.")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(serveCmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to RootCmd.
func Execute() {
	cli.Exit(RootCmd.Execute())
}

// initConfig reads in the config file and environment variables, if set.
func initConfig() {
	if Global.ConfigFilePath != "" && Global.ConfigFilePath != defaultConfigFilePath {
		viper.SetConfigFile(Global.ConfigFilePath)
	} else {
		viper.SetConfigName(ConfigFileName)
		viper.AddConfigPath(DefaultConfigDir)
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil {
		Global.ConfigFilePath = viper.ConfigFileUsed()
		if Global.Debug {
			cli.Stderr.Printf("Using config file: %s", viper.ConfigFileUsed())
		}
	} else {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
		default:
			cli.Exit(fmt.Errorf("error loading config file (%s): %s", viper.ConfigFileUsed(), err))
		}
	}
}

var RootCmd = &cobra.Command{
	Use:     "bucketrun",
	Short:   "bucketrun",
	Long:    `bucketrun runs a plan of data-parallel steps over a bucket of rows.`,
	Version: version.VersionToString(),
}

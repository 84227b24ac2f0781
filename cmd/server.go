/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	devConfig "github.com/leadbasehq/leadbase/dev/config"
	"github.com/leadbasehq/leadbase/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a leadbase server",
	Long:  `The leadbase server houses the lead records, csv reconciliation & sms messaging functionality`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

var serverCongFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	// TODO: Make this required, when not in dev mode
	serverCmd.Flags().StringVar(&serverCongFile, "sconfig", "", "Config for server")
}

func serverConfig() *viper.Viper {
	config := viper.New()

	if isDevEnv {
		serverCongFile = devConfigFilePath()
	}

	config.SetConfigFile(serverCongFile)
	config.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	return config
}

// devConfigFilePath writes the bundled dev config out(if it's not
// already there) & returns its path.
func devConfigFilePath() string {
	configDir, err := os.Getwd()
	if err != nil {
		log.Panic(err)
	}

	configFilePath := filepath.Join(configDir, "dev", "config", "server.yml")
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		err = os.WriteFile(configFilePath, []byte(devConfig.SERVER_YML), 0600)
		if err != nil {
			log.Panic(err)
		}
	}

	return configFilePath
}

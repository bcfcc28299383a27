package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	checkqc "github.com/onflow/certstore/cmd/util/cmd/check-qc"
	"github.com/onflow/certstore/cmd/util/cmd/common"
	db "github.com/onflow/certstore/cmd/util/cmd/db-migration"
	migrate "github.com/onflow/certstore/cmd/util/cmd/migrate-consensus"
	read "github.com/onflow/certstore/cmd/util/cmd/read-consensus"
)

var (
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "util",
	Short: "utility functions for consensus certificate databases",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		lvl, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		zerolog.SetGlobalLevel(lvl)
		return nil
	},
}

var RootCmd = rootCmd

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "loglevel", "l", "info", "log level (panic, fatal, error, warn, info, debug)")
	common.InitStorageFlags(rootCmd.PersistentFlags())
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	cobra.OnInitialize(initConfig)

	addCommands()
}

func addCommands() {
	rootCmd.AddCommand(read.Cmd)
	rootCmd.AddCommand(migrate.Cmd)
	rootCmd.AddCommand(db.Cmd)
	rootCmd.AddCommand(checkqc.Cmd)
}

func initConfig() {
	viper.SetEnvPrefix("certstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

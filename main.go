package main

import (
	"os"

	"github.com/AhmadFauzi003/backend-eddsa/cmd/keys"
	"github.com/AhmadFauzi003/backend-eddsa/cmd/qr"
	"github.com/AhmadFauzi003/backend-eddsa/cmd/sessions"
	"github.com/AhmadFauzi003/backend-eddsa/cmd/sign"
	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.DefaultServiceConfigFromEnv()

	zerolog.SetGlobalLevel(util.LogLevelFromString(cfg.Logger.Level))
	if cfg.Logger.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter())
	}

	rootCmd := &cobra.Command{
		Use:   "backend-eddsa",
		Short: "Ed25519 signing engine for academic documents",
	}

	rootCmd.AddCommand(keys.New())
	rootCmd.AddCommand(sign.New())
	rootCmd.AddCommand(sessions.New())
	rootCmd.AddCommand(qr.New())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

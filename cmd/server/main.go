package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ammar-alrfee/fit-manager/internal/config"
	"github.com/Ammar-alrfee/fit-manager/pkg/logging"
)

var (
	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:           "fitmanager",
		Short:         "Gym membership and attendance manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			logging.SetupWithFormat(cfg.Log.Format, cfg.Log.Level)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./fitmanager.yaml)")

	rootCmd.AddCommand(serveCmd, loginCmd, logoutCmd, whoamiCmd, checkinCmd, todayCmd, membersCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

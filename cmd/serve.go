package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/ginjaninja78/plan-of-study-converter/internal/server"
	"github.com/ginjaninja78/plan-of-study-converter/internal/store"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the plan API on server.addr. Plans are kept in the store selected by
store.driver (memory, postgres or sqlite3).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			mainConfig.Server.Addr = serveAddr
		}
		if logger.Level() > logging.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		profiles, err := loadProfiles()
		if err != nil {
			return err
		}

		plans, err := store.Open(cmd.Context(), mainConfig.Store)
		if err != nil {
			return err
		}
		defer plans.Close()
		logger.Info("Using %s plan store", mainConfig.Store.Driver)

		return server.New(mainConfig, profiles, plans, logger).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/baiirun/kanban/internal/config"
	"github.com/baiirun/kanban/internal/db"
	"github.com/baiirun/kanban/internal/kanban"
	"github.com/baiirun/kanban/internal/logging"
)

// app holds the state shared by every command in one invocation.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
	logger  *zap.Logger
	db      *db.DB
	board   *kanban.Board
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kanban",
		Short: "Track work items on a kanban board",
		Long: `A CLI for managing work items, tags and users on a kanban board.
Work items move through New, Active, Resolved, Closed and Removed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .kanban/config.yaml or ~/.config/kanban/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the board database (default: ~/.kanban/kanban.db)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	_ = a.v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newItemCmd(a))
	rootCmd.AddCommand(newTagCmd(a))
	rootCmd.AddCommand(newUserCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newBoardCmd(a))

	return rootCmd
}

func newApp() *app {
	return &app{v: viper.New()}
}

// setup loads configuration, builds the logger and opens the board.
func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	path := cfg.DBPath
	if path == "" {
		path, err = db.DefaultPath()
		if err != nil {
			return err
		}
	}

	database, err := db.Open(path)
	if err != nil {
		return err
	}
	if err := database.Init(); err != nil {
		_ = database.Close()
		return err
	}
	a.db = database
	a.logger.Debug("opened board", zap.String("path", path))

	a.board = kanban.New(database,
		kanban.WithLogger(logger),
		kanban.WithStrictTransitions(cfg.Board.StrictTransitions),
	)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

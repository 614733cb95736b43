package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/mailmirror/internal/api"
	"github.com/lu-zhengda/mailmirror/internal/config"
	"github.com/lu-zhengda/mailmirror/internal/engine"
	"github.com/lu-zhengda/mailmirror/internal/session"
	"github.com/lu-zhengda/mailmirror/internal/store"
	"github.com/lu-zhengda/mailmirror/internal/store/sqlite"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "mailmirror",
		Short:   "Local-first mailbox mirror",
		Long:    "Mirrors a remote mailbox into a local SQLite database and keeps it in sync.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
				switch shell {
				case "bash":
					return cmd.Root().GenBashCompletion(os.Stdout)
				case "zsh":
					return cmd.Root().GenZshCompletion(os.Stdout)
				case "fish":
					return cmd.Root().GenFishCompletion(os.Stdout, true)
				default:
					return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
				}
			}
			return cmd.Help()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mailmirror %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	root.Flags().MarkHidden("generate-completion")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newMailboxesCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newCategoriesCmd())
	root.AddCommand(newStarCmd())
	root.AddCommand(newMarkReadCmd())
	root.AddCommand(newMoveCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB creates the data directory and opens the SQLite mirror.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mailmirror.db")
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newSession builds the API client and the keyring-backed session. The
// client authenticates its requests with the session's access token.
func newSession(cfg *config.Config) (*session.Session, *api.Client, error) {
	timeout, err := cfg.ServerTimeout()
	if err != nil {
		return nil, nil, err
	}

	client := api.New(cfg.Server.BaseURL, timeout)
	logger := log.New(os.Stderr, "", 0)
	sess := session.New(client, store.NewKeyringTokenStore(), cfg.Auth.DeviceName, logger)
	client.SetTokenSource(sess)
	return sess, client, nil
}

// newEngine wires the sync engine on top of the mirror, the API client,
// and the session.
func newEngine(db *sqlite.DB, cfg *config.Config) (*engine.Engine, *session.Session, error) {
	sess, client, err := newSession(cfg)
	if err != nil {
		return nil, nil, err
	}

	coalesce, err := cfg.CoalesceWindow()
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(os.Stderr, "", 0)
	return engine.New(db, client, sess, coalesce, logger), sess, nil
}

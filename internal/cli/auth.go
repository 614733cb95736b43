package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var passwordFlag string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store the session token in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]

			password := passwordFlag
			if password == "" || password == "-" {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read password from stdin: %w", err)
				}
				password = strings.TrimSpace(string(b))
			}
			if password == "" {
				return fmt.Errorf("password is required (use --password or pipe it on stdin)")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sess, _, err := newSession(cfg)
			if err != nil {
				return err
			}

			if err := sess.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "login", Email: email})
			}
			fmt.Printf("Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&passwordFlag, "password", "", "account password (use '-' or omit to read from stdin)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sess, _, err := newSession(cfg)
			if err != nil {
				return err
			}

			sess.Logout(cmd.Context())

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "logout"})
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// runMutation applies the patch to the local mirror and forwards it to
// the server in the background. Wait blocks until the push settles so
// the process does not exit mid-request.
func runMutation(cmd *cobra.Command, emailID string, patch domain.EmailPatch, action string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, _, err := newEngine(db, cfg)
	if err != nil {
		return err
	}
	defer eng.Wait()

	if err := eng.MutateEmail(cmd.Context(), emailID, patch); err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	if jsonFlag {
		return printJSON(jsonAction{OK: true, Action: action, EmailID: emailID})
	}
	return nil
}

func newStarCmd() *cobra.Command {
	var removeFlag bool

	cmd := &cobra.Command{
		Use:   "star <email-id>",
		Short: "Star or unstar an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			starred := !removeFlag
			action := "star"
			if removeFlag {
				action = "unstar"
			}

			if err := runMutation(cmd, args[0], domain.EmailPatch{IsStarred: &starred}, action); err != nil {
				return err
			}
			if !jsonFlag {
				if removeFlag {
					fmt.Println("Star removed.")
				} else {
					fmt.Println("Email starred.")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&removeFlag, "remove", false, "remove star instead of adding")
	return cmd
}

func newMarkReadCmd() *cobra.Command {
	var unreadFlag bool

	cmd := &cobra.Command{
		Use:   "mark-read <email-id>",
		Short: "Mark an email as read or unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			read := !unreadFlag
			action := "mark-read"
			if unreadFlag {
				action = "mark-unread"
			}

			if err := runMutation(cmd, args[0], domain.EmailPatch{IsRead: &read}, action); err != nil {
				return err
			}
			if !jsonFlag {
				if read {
					fmt.Println("Marked as read.")
				} else {
					fmt.Println("Marked as unread.")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadFlag, "unread", false, "mark as unread instead of read")
	return cmd
}

func newMoveCmd() *cobra.Command {
	var categoryFlag string
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "move <email-id>",
		Short: "Move an email to a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if categoryFlag == "" && !clearFlag {
				return fmt.Errorf("one of --category or --clear is required")
			}
			if categoryFlag != "" && clearFlag {
				return fmt.Errorf("--category and --clear are mutually exclusive")
			}

			category := categoryFlag // "" clears the category
			if err := runMutation(cmd, args[0], domain.EmailPatch{CategoryID: &category}, "move"); err != nil {
				return err
			}
			if !jsonFlag {
				if clearFlag {
					fmt.Println("Category cleared.")
				} else {
					fmt.Printf("Moved to category %s.\n", category)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "", "target category ID")
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "remove the email from its category")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/mailmirror/internal/domain"
	"github.com/lu-zhengda/mailmirror/internal/engine"
	"github.com/lu-zhengda/mailmirror/internal/store"
	"github.com/lu-zhengda/mailmirror/internal/store/sqlite"
)

func newMailboxesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mailboxes",
		Short: "List synced mailboxes",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := refreshMirror(cmd.Context(), db); err != nil {
				return err
			}

			mailboxes, err := db.ListMailboxes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list mailboxes: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONMailboxes(mailboxes))
			}

			if len(mailboxes) == 0 {
				fmt.Println("No mailboxes. Run 'mailmirror sync' first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tADDRESS\tPLAN\tCREATED")
			for _, m := range mailboxes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.ID, m.Address, m.Plan,
					m.CreatedAt.Format(time.DateOnly),
				)
			}
			return w.Flush()
		},
	}
}

func newListCmd() *cobra.Command {
	var mailboxFlag, categoryFlag string
	var starredFlag, unreadFlag bool
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emails in a mailbox",
		Long:  "List active emails in a mailbox, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := refreshMirror(ctx, db); err != nil {
				return err
			}

			mailboxID, err := resolveMailbox(ctx, db, mailboxFlag)
			if err != nil {
				return err
			}

			emails, err := db.ListEmails(ctx, store.ListEmailOptions{
				MailboxID:  mailboxID,
				CategoryID: categoryFlag,
				Starred:    starredFlag,
				Unread:     unreadFlag,
				Limit:      limitFlag,
			})
			if err != nil {
				return fmt.Errorf("failed to list emails: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONEmails(emails))
			}

			if len(emails) == 0 {
				fmt.Println("No messages found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FLAGS\tFROM\tSUBJECT\tDATE\tID")
			for _, e := range emails {
				flags := ""
				if !e.IsRead {
					flags += "*"
				}
				if e.IsStarred {
					flags += "s"
				}
				from := e.From.Name
				if from == "" {
					from = e.From.Email
				}
				if len(from) > 30 {
					from = from[:27] + "..."
				}
				subject := e.Subject
				if len(subject) > 50 {
					subject = subject[:47] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					flags, from, subject,
					e.CreatedAt.Format("Jan 2, 2006"),
					e.ID,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&mailboxFlag, "mailbox", "", "mailbox ID (defaults to the only synced mailbox)")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "filter by category ID")
	cmd.Flags().BoolVar(&starredFlag, "starred", false, "only starred emails")
	cmd.Flags().BoolVar(&unreadFlag, "unread", false, "only unread emails")
	cmd.Flags().IntVar(&limitFlag, "limit", 25, "max emails to show")
	return cmd
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <email-id>",
		Short: "Read an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			email, err := db.GetEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get email: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONEmailDetail(email))
			}

			fmt.Printf("From: %s\n", email.From)
			if to := formatRecipients(email.Recipients, false); to != "" {
				fmt.Printf("To: %s\n", to)
			}
			if cc := formatRecipients(email.Recipients, true); cc != "" {
				fmt.Printf("CC: %s\n", cc)
			}
			fmt.Printf("Subject: %s\n", email.Subject)
			fmt.Printf("Date: %s\n", email.CreatedAt.Format("Mon, Jan 2 2006 3:04 PM"))
			readStatus := "read"
			if !email.IsRead {
				readStatus = "unread"
			}
			fmt.Printf("Status: %s\n", readStatus)
			if len(email.Attachments) > 0 {
				names := make([]string, len(email.Attachments))
				for i, a := range email.Attachments {
					names[i] = a.Filename
				}
				fmt.Printf("Attachments: %s\n", strings.Join(names, ", "))
			}
			fmt.Println(strings.Repeat("─", 60))
			fmt.Println(email.Body)
			return nil
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	var mailboxFlag string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories in a mailbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			mailboxID, err := resolveMailbox(ctx, db, mailboxFlag)
			if err != nil {
				return err
			}

			categories, err := db.ListCategories(ctx, mailboxID)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if jsonFlag {
				return printJSON(toJSONCategories(categories))
			}

			if len(categories) == 0 {
				fmt.Println("No categories found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLOR")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&mailboxFlag, "mailbox", "", "mailbox ID (defaults to the only synced mailbox)")
	return cmd
}

// refreshMirror brings the mirror up to date before a read command. An
// empty mirror forces a blocking full sync; otherwise a failed sync is
// only a warning and the command shows last-good local data.
func refreshMirror(ctx context.Context, db *sqlite.DB) error {
	cursor, err := db.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync cursor: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, _, err := newEngine(db, cfg)
	if err != nil {
		return err
	}
	defer eng.Wait()

	if cursor == "" {
		if _, err := eng.Sync(ctx, engine.Options{}); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
		return nil
	}

	if _, err := eng.Sync(ctx, engine.Options{Minimal: true, Silent: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: sync failed, showing cached data: %v\n", err)
	}
	return nil
}

// resolveMailbox picks the mailbox to operate on: the flag if given,
// otherwise the only synced mailbox.
func resolveMailbox(ctx context.Context, db *sqlite.DB, mailboxFlag string) (string, error) {
	if mailboxFlag != "" {
		return mailboxFlag, nil
	}

	mailboxes, err := db.ListMailboxes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list mailboxes: %w", err)
	}
	switch len(mailboxes) {
	case 0:
		return "", fmt.Errorf("no mailboxes synced; run 'mailmirror sync' first")
	case 1:
		return mailboxes[0].ID, nil
	default:
		return "", fmt.Errorf("multiple mailboxes synced; pick one with --mailbox")
	}
}

// formatRecipients joins the To (cc=false) or CC (cc=true) addresses
// of an email.
func formatRecipients(recipients []domain.Recipient, cc bool) string {
	var parts []string
	for _, r := range recipients {
		if r.CC == cc {
			parts = append(parts, r.Address.String())
		}
	}
	return strings.Join(parts, ", ")
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/geocoder89/clocktrack/internal/auth"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/repo/postgres"
	"github.com/geocoder89/clocktrack/internal/security"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenEmail  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Access token commands",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an access token",
	Long: `Issue a bearer token for the API, signed with JWT_SECRET.

With --email the user is looked up and the password is checked.
With --user-id no database is needed, which suits STORE=memory.

Examples:
  clocktrackctl token issue --email alice@example.com
  clocktrackctl token issue --user-id 5f0c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (tokenUserID == "") == (tokenEmail == "") {
			return errors.New("exactly one of --user-id or --email is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

		if tokenUserID != "" {
			if _, err := uuid.Parse(tokenUserID); err != nil {
				return fmt.Errorf("--user-id must be a uuid: %w", err)
			}
			return printToken(cmd, tokens, tokenUserID, "")
		}

		password, err := readPassword(cmd.InOrStdin(), "Password: ")
		if err != nil {
			return err
		}

		pool, err := openPool(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		u, err := postgres.NewUsersRepo(pool).GetByEmail(ctx, tokenEmail)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return errors.New("invalid email or password")
			}
			return err
		}

		if err := security.CheckPassword(u.PasswordHash, password); err != nil {
			return errors.New("invalid email or password")
		}

		return printToken(cmd, tokens, u.ID, u.Email)
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenUserID, "user-id", "", "issue for this user id without a lookup")
	tokenIssueCmd.Flags().StringVar(&tokenEmail, "email", "", "issue for the user with this email")

	tokenCmd.AddCommand(tokenIssueCmd)
}

func printToken(cmd *cobra.Command, tokens *auth.Manager, userID, email string) error {
	tok, err := tokens.GenerateAccessToken(userID, email)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/geocoder89/clocktrack/internal/db"
	"github.com/geocoder89/clocktrack/internal/repo/postgres"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userEmail string
	userName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user (idempotent by email)",
	Long: `Create a user that can own clients, projects and time entries.

The password is prompted for, or read from CLOCKTRACK_PASSWORD when set.
An existing user with the same email is left unchanged.

Example:
  clocktrackctl user create --email alice@example.com --name Alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd.InOrStdin(), "Password: ")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
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

		u, err := db.EnsureUser(ctx, postgres.NewUsersRepo(pool), userEmail, password, userName)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.ID, u.Email)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "user email (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	_ = userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
}

// readPassword prefers CLOCKTRACK_PASSWORD, then a no-echo terminal prompt,
// then a plain line from piped input.
func readPassword(in io.Reader, prompt string) (string, error) {
	if v := os.Getenv("CLOCKTRACK_PASSWORD"); v != "" {
		return v, nil
	}

	fd := int(syscall.Stdin)
	if in == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

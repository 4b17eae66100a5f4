package cli

import (
	"bufio"
	"fmt"
	"strings"

	"advent_calendar/internal/services/auth"

	"github.com/spf13/cobra"
)

func (r *root) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator credentials",
	}

	var password string
	hash := &cobra.Command{
		Use:   "hash-password",
		Short: "Print bcrypt hash for auth.admin_password_hash",
		Long:  "Prints bcrypt hash of --password, or of the first stdin line when the flag is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(r.stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}
	hash.Flags().StringVar(&password, "password", "", "password to hash")

	cmd.AddCommand(hash)

	return cmd
}

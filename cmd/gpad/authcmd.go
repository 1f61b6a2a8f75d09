package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the remote service authorisation",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an auth token is stored",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := current.tokens.HasToken()
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(current.out, "authorised")
		} else {
			fmt.Fprintln(current.out, "not authorised")
		}
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Store the auth token of the remote service",
	Args:  maxArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			var err error
			token, err = current.ui.readSecret("Token:")
			if err != nil {
				return err
			}
		}
		if strings.TrimSpace(token) == "" {
			return usageError{errors.New("token must not be empty")}
		}
		return current.manager().Authorize(cmd.Context(), token)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored auth token",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.manager().RemoveAuthorization(cmd.Context())
	},
}

func init() {
	authCmd.AddCommand(authStatusCmd, authLoginCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

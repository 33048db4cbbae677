package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codenerd-labs/bookmarkd/internal/auth"
)

var userCreatePassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage bookmarkd users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username> <email>",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(userCreatePassword)
		if err != nil {
			return err
		}
		id, err := app.Store.CreateUser(args[0], args[1], hash, nil)
		if err != nil {
			return err
		}
		fmt.Printf("created user %q (id=%d)\n", args[0], id)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		u, err := app.Store.GetUser(uid)
		if err != nil {
			return err
		}
		fmt.Printf("id=%d username=%s email=%s interests=%v\n", u.ID, u.Username, u.Email, u.TechnologyInterests)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreatePassword, "password", "", "Password for the new user (hashed before storage)")
	userCmd.AddCommand(userCreateCmd, userShowCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage your own LLM API key",
	Long: `Each user can register their own LLM API key so their usage is
billed and rate-limited independently of every other user. Without a
registered key, requests fall back to the process-wide default key (if
configured), subject to the same per-user quotas.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Register or replace your API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		if err := app.Keys.SetKey(uid, args[0]); err != nil {
			return err
		}
		fmt.Println("key saved")
		return nil
	},
}

var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove your registered API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		if err := app.Keys.ClearKey(uid); err != nil {
			return err
		}
		fmt.Println("key cleared")
		return nil
	},
}

var keysStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a key is registered and current usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		usage := app.Keys.GetUsage(uid, time.Now())
		fmt.Printf("has_key=%v minute=%d day=%d month=%d\n", app.Keys.HasKey(uid), usage.Minute, usage.Day, usage.Month)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysSetCmd, keysClearCmd, keysStatusCmd)
}

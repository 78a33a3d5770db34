package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"holograph/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := db.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println(mutedStyle.Render("no sessions"))
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s/%d dims  updated %s\n",
				keyStyle.Render(s.Name), s.Strategy, s.Dimensions, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Re-persist the current session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.save(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("saved session ") + sessionName)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("deleted session ") + args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionSaveCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}

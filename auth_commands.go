package main

import (
	"fmt"

	"imageconverter/identity"

	"github.com/spf13/cobra"
)

func newAuthCommands(ctx *commandContext) []*cobra.Command {
	var nameFlag string

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in; opens a dialog unless --name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			var prompter identity.Prompter
			if nameFlag != "" {
				prompter = identity.StaticPrompter(nameFlag)
			}
			provider, err := ctx.identityProvider(prompter)
			if err != nil {
				return err
			}
			tracker := identity.NewTracker(provider)
			tracker.Start()
			defer tracker.Close()

			tracker.SignIn(cmd.Context())
			u := tracker.User()
			if u == nil {
				return fmt.Errorf("sign-in did not complete")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.DisplayName)
			return nil
		},
	}
	login.Flags().StringVar(&nameFlag, "name", "", "Display name to sign in with, skipping the dialog")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			provider, err := ctx.identityProvider(nil)
			if err != nil {
				return err
			}
			tracker := identity.NewTracker(provider)
			tracker.Start()
			defer tracker.Close()

			if tracker.User() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			tracker.SignOut(cmd.Context())
			if tracker.User() != nil {
				return fmt.Errorf("sign-out did not complete")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			provider, err := ctx.identityProvider(nil)
			if err != nil {
				return err
			}
			tracker := identity.NewTracker(provider)
			tracker.Start()
			defer tracker.Close()

			u := tracker.User()
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Please log in to use the converter.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.DisplayName)
			fmt.Fprintf(cmd.OutOrStdout(), "User ID: %s\n", u.UID)
			return nil
		},
	}

	return []*cobra.Command{login, logout, whoami}
}

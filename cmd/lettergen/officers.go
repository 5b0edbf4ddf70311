package main

import (
	"context"
	"fmt"
	"github.com/myrjola/lettergen/internal/auth"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/repositories"
	"github.com/spf13/cobra"
	"log/slog"
	"strings"
	"text/tabwriter"
)

var officersGroup = &cobra.Group{
	ID:    "officers",
	Title: "Officer accounts",
}

var officersCmd = &cobra.Command{
	Use:     "officers",
	GroupID: "officers",
	Short:   "Manage officer accounts",
	Long:    `Manage officer accounts. Everything except changing your own password needs the admin account.`,
}

func init() {
	for _, cmd := range []*cobra.Command{officersAddCmd, officersUpdateCmd} {
		cmd.Flags().String("name", "", "full name")
		cmd.Flags().String("designation", "", "rank or designation")
		cmd.Flags().String("phone", "", "phone number")
		cmd.Flags().String("email", "", "email address")
		cmd.Flags().String("address", "", "office address")
	}
	officersAddCmd.MarkFlagsRequiredTogether("name", "designation")
	for _, cmd := range []*cobra.Command{officersAddCmd, officersPasswdCmd} {
		cmd.Flags().String("new-password", "", "new password, at least 6 characters")
		cmd.Flags().String("confirm", "", "the new password again")
	}
	officersCmd.AddCommand(
		officersAddCmd, officersListCmd, officersFilterCmd, officersUpdateCmd, officersPasswdCmd, officersDeleteCmd)
}

var officersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an officer account",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.requireAdmin(ctx, cmd); err != nil {
			return err
		}
		password, confirmation := passwordFlags(cmd)
		if err := auth.ValidateNewPassword(password, confirmation); err != nil {
			return err
		}
		id, err := a.officers.Create(ctx, args[0], password, profileFlags(cmd, models.OfficerProfile{}))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created officer %s (id %d)\n", args[0], id)
		return nil
	}),
}

var officersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List officer accounts",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		if _, err := a.requireAdmin(ctx, cmd); err != nil {
			return err
		}
		officers, err := a.officers.List(ctx)
		if err != nil {
			return err
		}
		printOfficers(cmd, officers)
		return nil
	}),
}

var officersFilterCmd = &cobra.Command{
	Use:   "filter <field> <text>",
	Short: "List officers whose field contains text",
	Long: fmt.Sprintf("List officers whose field contains text, ignoring case. Fields: %s.",
		strings.Join(repositories.FilterFields, ", ")),
	Args: cobra.ExactArgs(2), //nolint:mnd // field and text.
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.requireAdmin(ctx, cmd); err != nil {
			return err
		}
		officers, err := a.officers.Filter(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printOfficers(cmd, officers)
		return nil
	}),
}

var officersUpdateCmd = &cobra.Command{
	Use:   "update <username>",
	Short: "Change the profile of an officer",
	Long:  `Change the profile of an officer. Only the given flags change.`,
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.requireAdmin(ctx, cmd); err != nil {
			return err
		}
		officer, err := a.officers.GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if err = a.officers.UpdateProfile(ctx, officer.ID, profileFlags(cmd, officer.Profile())); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated officer %s\n", officer.Username)
		return nil
	}),
}

var officersPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Reset the password of an officer",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		current, err := a.authenticate(ctx, cmd)
		if err != nil {
			return err
		}
		if current.Username != repositories.ProtectedUsername && current.Username != args[0] {
			return errors.Wrap(errAdminOnly, "reset password", slog.String("username", args[0]))
		}
		officer, err := a.officers.GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		password, confirmation := passwordFlags(cmd)
		if err = a.officers.SetPassword(ctx, officer.ID, password, confirmation); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "changed password of %s\n", officer.Username)
		return nil
	}),
}

var officersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an officer account",
	Long:  `Delete an officer account. The admin account cannot be deleted. Notices keep their history without the officer.`,
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.requireAdmin(ctx, cmd); err != nil {
			return err
		}
		officer, err := a.officers.GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if err = a.officers.Delete(ctx, officer.ID); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted officer %s\n", officer.Username)
		return nil
	}),
}

// profileFlags overlays the profile flags that were set on base.
func profileFlags(cmd *cobra.Command, base models.OfficerProfile) models.OfficerProfile {
	fields := []struct {
		flag  string
		value *string
	}{
		{flag: "name", value: &base.Name},
		{flag: "designation", value: &base.Designation},
		{flag: "phone", value: &base.Phone},
		{flag: "email", value: &base.Email},
		{flag: "address", value: &base.Address},
	}
	for _, f := range fields {
		if cmd.Flags().Changed(f.flag) {
			*f.value, _ = cmd.Flags().GetString(f.flag)
		}
	}
	return base
}

func passwordFlags(cmd *cobra.Command) (string, string) {
	password, _ := cmd.Flags().GetString("new-password")
	confirmation, _ := cmd.Flags().GetString("confirm")
	return password, confirmation
}

func printOfficers(cmd *cobra.Command, officers []models.Officer) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding.
	_, _ = fmt.Fprintln(w, "USERNAME\tNAME\tDESIGNATION\tPHONE\tEMAIL\tADDRESS")
	for _, o := range officers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.Username, o.Name, o.Designation, o.Phone, o.Email, o.Address)
	}
	_ = w.Flush()
}

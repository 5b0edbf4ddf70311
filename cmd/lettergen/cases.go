package main

import (
	"context"
	"fmt"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/spf13/cobra"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ncrpIDLength is the length of an NCRP acknowledgement number.
const ncrpIDLength = 14

var casesGroup = &cobra.Group{
	ID:    "cases",
	Title: "Cases",
}

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "cases",
	Short:   "Check credentials and show the officer profile",
	Args:    cobra.NoArgs,
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		officer, err := a.authenticate(ctx, cmd)
		if err != nil {
			return err
		}
		printOfficers(cmd, []models.Officer{officer})
		return nil
	}),
}

var casesCmd = &cobra.Command{
	Use:     "cases",
	GroupID: "cases",
	Short:   "Open and list cases",
}

func init() {
	casesRecentCmd.Flags().Int("limit", 10, "number of cases to show") //nolint:mnd // matches the recent case picker.
	casesCmd.AddCommand(casesOpenCmd, casesRecentCmd, casesNoticesCmd)
}

var casesOpenCmd = &cobra.Command{
	Use:   "open <crime-number> <ncrp-id>",
	Short: "Store a case, or find the stored one",
	Args:  cobra.ExactArgs(2), //nolint:mnd // crime number and NCRP ID.
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.authenticate(ctx, cmd); err != nil {
			return err
		}
		c, err := parseCase(args[0], args[1])
		if err != nil {
			return err
		}
		id, err := a.cases.FindOrCreate(ctx, c.CrimeNumber, c.ReportRef)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "case %d: %s | %s\n", id, c.CrimeNumber, c.ReportRef)
		return nil
	}),
}

var casesRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently stored cases",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		if _, err := a.authenticate(ctx, cmd); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		cases, err := a.cases.Recent(ctx, limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding.
		_, _ = fmt.Fprintln(w, "ID\tCRIME NUMBER\tNCRP ID\tCREATED")
		for _, c := range cases {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.CrimeNumber, c.ReportRef, c.Created)
		}
		return w.Flush()
	}),
}

var casesNoticesCmd = &cobra.Command{
	Use:   "notices <case-id>",
	Short: "List the notices generated for a case",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if _, err := a.authenticate(ctx, cmd); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "parse case id", slog.String("case_id", args[0]))
		}
		c, err := a.cases.Get(ctx, id)
		if err != nil {
			return err
		}
		notices, err := a.notices.ListForCase(ctx, c.ID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "case %d: %s | %s\n", c.ID, c.CrimeNumber, c.ReportRef)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding.
		_, _ = fmt.Fprintln(w, "CREATED\tTYPE\tRECIPIENT\tBATCH\tFILE")
		for _, n := range notices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.Created, n.LetterType, n.Recipient, n.BatchID, n.OutputPath)
		}
		return w.Flush()
	}),
}

// parseCase checks the case details typed by the operator. Any non-empty crime number is accepted, the NCRP ID must
// be 14 digits.
func parseCase(crimeNumber string, ncrpID string) (models.Case, error) {
	crimeNumber, ncrpID = strings.TrimSpace(crimeNumber), strings.TrimSpace(ncrpID)
	if crimeNumber == "" {
		return models.Case{}, errors.New("crime number is required")
	}
	if len(ncrpID) != ncrpIDLength || strings.Trim(ncrpID, "0123456789") != "" {
		return models.Case{}, errors.New("NCRP ID must be 14 digits", slog.String("ncrp_id", ncrpID))
	}
	return models.Case{CrimeNumber: crimeNumber, ReportRef: ncrpID}, nil
}

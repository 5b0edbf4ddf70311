package main

import (
	"context"
	"fmt"
	"github.com/myrjola/lettergen/internal/letters"
	"github.com/myrjola/lettergen/internal/sheet"
	"github.com/spf13/cobra"
	"strings"
)

var lettersGroup = &cobra.Group{
	ID:    "letters",
	Title: "Letters",
}

func init() {
	for _, cmd := range []*cobra.Command{bankCmd, interCmd, tspCmd} {
		cmd.Flags().String("crime", "", "crime number with sections")
		cmd.Flags().String("ncrp", "", "14 digit NCRP acknowledgement number")
		cmd.Flags().String("template-dir", "", "template directory (default $LETTERGEN_TEMPLATE_DIR)")
		_ = cmd.MarkFlagRequired("crime")
		_ = cmd.MarkFlagRequired("ncrp")
	}
	for _, cmd := range []*cobra.Command{interCmd, tspCmd} {
		cmd.Flags().String("from", "", "start of the requested period, dd-mm-yyyy")
		cmd.Flags().String("to", "", "end of the requested period, dd-mm-yyyy")
	}
	interCmd.Flags().String("id-type", "", "identifier type on platforms with several kinds, for example GAID on Google")

	if catalog, err := letters.DefaultCatalog(); err == nil {
		interCmd.Long = catalogHelp(interCmd.Short, "Built-in platforms", catalog.PlatformNames(),
			"Other platforms use the default intermediary template.")
		tspCmd.Long = catalogHelp(tspCmd.Short, "Built-in request types", catalog.RequestTypeNames(),
			`Request types with spaces need quoting, for example "IMEI CDR".`)
	}
}

// catalogHelp describes a letters command together with the names its built-in catalog knows. A catalog.yaml in the
// template directory can change them.
func catalogHelp(short string, title string, names []string, note string) string {
	return fmt.Sprintf("%s.\n\n%s: %s.\n\n%s", short, title, strings.Join(names, ", "), note)
}

var bankCmd = &cobra.Command{
	Use:     "bank <sheet.xlsx>",
	GroupID: "letters",
	Short:   "Generate one notice per bank from a transaction sheet",
	Args:    cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		generator, session, err := prepare(ctx, a, cmd)
		if err != nil {
			return err
		}
		transactions, err := sheet.ReadBankTransactions(args[0])
		if err != nil {
			return err
		}
		report, err := generator.Bank(ctx, session, transactions)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	}),
}

var interCmd = &cobra.Command{
	Use:     "inter <platform> <identifier>...",
	GroupID: "letters",
	Short:   "Generate a notice to an intermediary platform",
	Args:    cobra.MinimumNArgs(2), //nolint:mnd // platform and at least one identifier.
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		generator, session, err := prepare(ctx, a, cmd)
		if err != nil {
			return err
		}
		idType, _ := cmd.Flags().GetString("id-type")
		from, to := dateFlags(cmd)
		report, err := generator.Intermediary(ctx, session, letters.InterRequest{
			Platform:    args[0],
			IDType:      idType,
			Identifiers: args[1:],
			DateFrom:    from,
			DateTo:      to,
		})
		printReport(cmd, report)
		return err
	}),
}

var tspCmd = &cobra.Command{
	Use:     "tsp <provider> <request-type> <identifier>...",
	GroupID: "letters",
	Short:   "Generate a notice to a telecom service provider",
	Args:    cobra.MinimumNArgs(3), //nolint:mnd // provider, request type and at least one identifier.
	RunE: run(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		generator, session, err := prepare(ctx, a, cmd)
		if err != nil {
			return err
		}
		from, to := dateFlags(cmd)
		report, err := generator.TSP(ctx, session, letters.TSPRequest{
			Provider:    args[0],
			RequestType: args[1],
			Identifiers: args[2:],
			DateFrom:    from,
			DateTo:      to,
		})
		printReport(cmd, report)
		return err
	}),
}

// prepare logs in, checks the case flags and the template directory and builds the generator.
func prepare(ctx context.Context, a *app, cmd *cobra.Command) (*letters.Generator, letters.Session, error) {
	officer, err := a.authenticate(ctx, cmd)
	if err != nil {
		return nil, letters.Session{}, err
	}
	crimeNumber, _ := cmd.Flags().GetString("crime")
	ncrpID, _ := cmd.Flags().GetString("ncrp")
	c, err := parseCase(crimeNumber, ncrpID)
	if err != nil {
		return nil, letters.Session{}, err
	}

	templateDir, _ := cmd.Flags().GetString("template-dir")
	if templateDir == "" {
		templateDir = a.cfg.TemplateDir
	}
	catalog, err := letters.ValidateTemplateDir(templateDir)
	if err != nil {
		return nil, letters.Session{}, err
	}
	session := letters.Session{
		Officer:     officer,
		Case:        c,
		TemplateDir: templateDir,
		OutputDir:   a.cfg.OutputDir,
	}
	return letters.NewGenerator(catalog, a.cases, a.notices, a.logger), session, nil
}

func dateFlags(cmd *cobra.Command) (string, string) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return strings.TrimSpace(from), strings.TrimSpace(to)
}

func printReport(cmd *cobra.Command, report letters.Report) {
	if len(report.Generated) == 0 && len(report.Issues) == 0 {
		return
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "batch %s: %d generated, %d issues\n", report.Batch, len(report.Generated), len(report.Issues))
	for _, out := range report.Generated {
		_, _ = fmt.Fprintf(w, "  %s\n", out.Path)
	}
	for _, issue := range report.Issues {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", issue.Recipient, issue.Err)
	}
}

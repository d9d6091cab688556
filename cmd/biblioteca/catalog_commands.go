package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/biblioteca/internal"
	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/models"
)

func (a *cliApp) exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every record to the consolidated spreadsheet",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "open", Usage: "Open the exported file afterwards"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			path, err := s.svc.Export(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Exported %d record(s) to %s.\n", s.svc.Snapshot().Len(), path)
			if cmd.Bool("open") {
				return a.opener.Open(ctx, path)
			}
			return nil
		},
	}
}

func (a *cliApp) openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a category spreadsheet (or the consolidated export with --all) in the default program",
		ArgsUsage: "[category]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "Open the consolidated export file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			var path string
			switch {
			case cmd.Bool("all"):
				path, err = s.svc.ExportPath()
			case cmd.NArg() == 1:
				path, err = s.svc.StorePath(cmd.Args().First())
			default:
				return fmt.Errorf("%w: expected a category or --all", apperr.ErrValidation)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Opening %s\n", path)
			return a.opener.Open(ctx, path)
		},
	}
}

func (a *cliApp) categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the categories with their spreadsheet files and record counts",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			infos, err := s.svc.Categories(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				updated := "-"
				if info.Exists {
					updated = info.UpdatedAt.Format(time.DateTime)
				}
				status := ""
				if info.Failed {
					status = "unreadable"
				}
				rows = append(rows, []string{info.Category, models.FileName(info.Category), strconv.Itoa(info.Records), updated, status})
			}
			fmt.Fprintln(out(cmd), renderTable(
				[]string{"Category", "File", "Records", "Updated", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func (a *cliApp) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent changes made through this program",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of events", Value: 20},
			&cli.StringFlag{Name: "category", Aliases: []string{"t"}, Usage: "Only this category"},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category := ""
			if cmd.IsSet("category") {
				c, err := resolveCategory(cmd.String("category"))
				if err != nil {
					return err
				}
				category = c
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			events, err := s.svc.History(ctx, int(cmd.Int("limit")), category)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(cmd, events)
			}
			if !s.cfg.Journal.Enabled() {
				fmt.Fprintln(out(cmd), "History is disabled (journal.path is empty).")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{e.At.Local().Format(time.DateTime), e.Kind, e.Category, e.RecordID, e.Detail})
			}
			fmt.Fprintln(out(cmd), renderTable([]string{"When", "Event", "Category", "Id", "Detail"}, rows, nil))
			return nil
		},
	}
}

func (a *cliApp) recoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "recover",
		Usage: "Settle category moves that were interrupted or refused",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			report, err := s.svc.RecoverMoves(ctx)
			if err != nil {
				return err
			}
			w := out(cmd)
			if report.Empty() {
				fmt.Fprintln(w, "No pending moves.")
				return nil
			}
			if len(report.Resolved) > 0 {
				fmt.Fprintf(w, "Already moved: %s\n", strings.Join(report.Resolved, ", "))
			}
			if len(report.Restored) > 0 {
				fmt.Fprintf(w, "Restored to their original category: %s\n", strings.Join(report.Restored, ", "))
			}
			if len(report.Stuck) > 0 {
				fmt.Fprintf(w, "Still pending (see log): %s\n", strings.Join(report.Stuck, ", "))
			}
			return nil
		},
	}
}

func (a *cliApp) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the catalog view fresh while the spreadsheets are edited elsewhere",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.License.Enabled {
				if err := a.gate(cfg, logger, true).Ensure(); err != nil {
					return err
				}
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithLogger(logger), internal.WithWatch()); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func (a *cliApp) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the catalog to LLM clients over MCP on stdin/stdout",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "Also watch the data directory for external edits"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.License.Enabled {
				// stdin carries the protocol, so activation must happen beforehand.
				if err := a.gate(cfg, logger, false).Ensure(); err != nil {
					return fmt.Errorf("%w (run `biblioteca license` first)", err)
				}
			}
			opts := []internal.Option{
				internal.WithConfig(cfg),
				internal.WithLogger(logger),
				internal.WithMCP(cmd.Root().Reader, cmd.Root().Writer),
			}
			if cmd.Bool("watch") {
				opts = append(opts, internal.WithWatch())
			}
			if err := internal.Run(ctx, opts...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func (a *cliApp) licenseCommand() *cli.Command {
	return &cli.Command{
		Name:  "license",
		Usage: "Activate this installation, or --reset the activation",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reset", Usage: "Remove the activation marker"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.License.Enabled {
				fmt.Fprintln(out(cmd), "Activation is disabled in the configuration.")
				return nil
			}
			g := a.gate(cfg, logger, true)
			if cmd.Bool("reset") {
				if err := g.Deactivate(); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Activation removed (%s).\n", g.MarkerPath())
				return nil
			}
			if err := g.Ensure(); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Activated (%s).\n", g.MarkerPath())
			return nil
		},
	}
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/models"
)

type fieldFlag struct {
	name   string
	column string
	usage  string
}

var fieldFlags = []fieldFlag{
	{"date", models.ColDate, "Registration date (DD/MM/YYYY)"},
	{"author", models.ColAuthor, "Author"},
	{"title", models.ColTitle, "Title (mandatory)"},
	{"place", models.ColPlace, "Place of publication"},
	{"publisher", models.ColPublisher, "Publisher"},
	{"edition", models.ColEdition, "Edition"},
	{"volume", models.ColVolume, "Volume"},
	{"number", models.ColNumber, "Number (',' or '.' as decimal separator)"},
	{"year", models.ColYear, "Year"},
	{"copy", models.ColCopy, "Copy"},
	{"quantity", models.ColQuantity, "Quantity"},
	{"source", models.ColSource, "Source (purchase, donation...)"},
	{"cutter", models.ColCutter, "Cutter number"},
	{"classification", models.ColClassification, "UDC classification"},
	{"subjects", models.ColSubjects, "Subjects"},
	{"note", models.ColNote, "Note"},
}

func recordFlags(extra ...cli.Flag) []cli.Flag {
	flags := make([]cli.Flag, 0, len(fieldFlags)+len(extra))
	for _, f := range fieldFlags {
		flags = append(flags, &cli.StringFlag{Name: f.name, Usage: f.usage})
	}
	return append(flags, extra...)
}

// applyFlags copies every field flag given on the command line onto rec.
// A flag given as "" clears the field.
func applyFlags(cmd *cli.Command, rec *models.Record) {
	for _, f := range fieldFlags {
		if cmd.IsSet(f.name) {
			_ = rec.Set(f.column, cmd.String(f.name))
		}
	}
}

func resolveCategory(input string) (string, error) {
	c, ok := models.LookupCategory(input)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q (known: %s)", apperr.ErrValidation, input, strings.Join(models.Categories, ", "))
	}
	return c, nil
}

// address reads the <category> <id> arguments.
func address(cmd *cli.Command) (string, string, error) {
	if cmd.NArg() != 2 {
		return "", "", fmt.Errorf("%w: expected <category> <id>", apperr.ErrValidation)
	}
	category, err := resolveCategory(cmd.Args().Get(0))
	if err != nil {
		return "", "", err
	}
	return category, strings.TrimSpace(cmd.Args().Get(1)), nil
}

func (a *cliApp) addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Register a new record; its id is assigned automatically",
		Flags: recordFlags(
			&cli.StringFlag{Name: "category", Aliases: []string{"t"}, Usage: "Category (Tipologia)", Required: true},
			&cli.StringFlag{Name: "id", Usage: "Requested id; replaced when it is not the next one"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category, err := resolveCategory(cmd.String("category"))
			if err != nil {
				return err
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec := models.Record{ID: cmd.String("id"), Category: category}
			applyFlags(cmd, &rec)
			stored, replaced, err := s.svc.Insert(ctx, rec)
			if err != nil {
				return err
			}
			w := out(cmd)
			if replaced {
				fmt.Fprintf(w, "Requested id %q replaced by the next id in %s.\n", rec.ID, category)
			}
			fmt.Fprintf(w, "Saved record %s in %s (%s).\n", stored.ID, category, models.FileName(category))
			return nil
		},
	}
}

func (a *cliApp) editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change the fields of a record; --move-to moves it to another category",
		ArgsUsage: "<category> <id>",
		Flags: recordFlags(
			&cli.StringFlag{Name: "move-to", Usage: "Move the record to this category, keeping its id"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category, id, err := address(cmd)
			if err != nil {
				return err
			}
			target := category
			if cmd.IsSet("move-to") {
				if target, err = resolveCategory(cmd.String("move-to")); err != nil {
					return err
				}
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.svc.Get(ctx, category, id)
			if err != nil {
				return err
			}
			applyFlags(cmd, &rec)
			rec.Category = target

			updated, err := s.svc.Update(ctx, category, id, rec)
			if err != nil {
				return err
			}
			if target != category {
				fmt.Fprintf(out(cmd), "Moved record %s from %s to %s.\n", updated.ID, category, target)
				return nil
			}
			fmt.Fprintf(out(cmd), "Updated record %s in %s.\n", updated.ID, category)
			return nil
		},
	}
}

func (a *cliApp) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a record",
		ArgsUsage: "<category> <id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category, id, err := address(cmd)
			if err != nil {
				return err
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.svc.Get(ctx, category, id)
			if err != nil {
				return err
			}
			if !cmd.Bool("yes") {
				ok, err := confirm(cmd, fmt.Sprintf("Delete record %s (%s) from %s? [y/N] ", rec.ID, rec.Title, category))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out(cmd), "Cancelled.")
					return nil
				}
			}
			if err := s.svc.Delete(ctx, category, id); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted record %s from %s.\n", id, category)
			return nil
		},
	}
}

func confirm(cmd *cli.Command, question string) (bool, error) {
	fmt.Fprint(out(cmd), question)
	line, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true, nil
	}
	return false, nil
}

func (a *cliApp) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show every field of a record",
		ArgsUsage: "<category> <id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category, id, err := address(cmd)
			if err != nil {
				return err
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.svc.Get(ctx, category, id)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(cmd, rec)
			}
			rows := make([][]string, 0, len(models.Columns))
			for _, c := range models.Columns {
				rows = append(rows, []string{c, rec.Get(c)})
			}
			fmt.Fprintln(out(cmd), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func (a *cliApp) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"list"},
		Usage:     "Search all categories by id, author or title; no term lists everything",
		ArgsUsage: "[term]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"t"}, Usage: "Only show this category"},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			only := ""
			if cmd.IsSet("category") {
				c, err := resolveCategory(cmd.String("category"))
				if err != nil {
					return err
				}
				only = c
			}
			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			snap := s.svc.Snapshot()
			for c, ferr := range snap.Failures {
				fmt.Fprintf(cmd.Root().ErrWriter, "warning: %s skipped: %v\n", c, ferr)
			}

			records := s.svc.Search(ctx, strings.Join(cmd.Args().Slice(), " "))
			if only != "" {
				filtered := records[:0]
				for _, r := range records {
					if r.Category == only {
						filtered = append(filtered, r)
					}
				}
				records = filtered
			}

			if cmd.Bool("json") {
				return writeJSON(cmd, records)
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{r.Category, r.ID, r.Author, r.Title, r.Year, r.Date})
			}
			w := out(cmd)
			if len(rows) > 0 {
				fmt.Fprintln(w, renderTable(
					[]string{models.ColCategory, models.ColID, models.ColAuthor, models.ColTitle, models.ColYear, models.ColDate},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			fmt.Fprintf(w, "%d record(s)\n", len(records))
			return nil
		},
	}
}

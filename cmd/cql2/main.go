package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/robert-malhotra/go-cql2/pkg/cql2"
	"github.com/urfave/cli/v3"
)

var (
	itemFileFlag = &cli.StringFlag{
		Name:    "item",
		Aliases: []string{"i"},
		Usage:   "path to a JSON item to reduce against (omit for partial evaluation)",
	}
	dialectFlag = &cli.StringFlag{
		Name:  "dialect",
		Usage: "SQL dialect: default or duckdb",
		Value: "default",
	}
)

func main() {
	cmd := &cli.Command{
		Name:  "cql2",
		Usage: "Parse, validate, reduce, and emit CQL2 expressions",
		Commands: []*cli.Command{
			newParseCommand(),
			newValidateCommand(),
			newReduceCommand(),
			newSQLCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse an expression and print its canonical cql2-text and cql2-json",
		ArgsUsage: "<expression>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			expr, err := parseFromArgsOrStdin(cmd)
			if err != nil {
				return err
			}
			text, err := cql2.ToText(expr)
			if err != nil {
				return err
			}
			data, err := cql2.ToJSON(expr)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, text)
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate an expression against the bundled CQL2 JSON Schema",
		ArgsUsage: "<expression>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			expr, err := parseFromArgsOrStdin(cmd)
			if err != nil {
				return err
			}
			if err := cql2.Validate(expr); err != nil {
				fmt.Fprintf(os.Stdout, "invalid: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintln(os.Stdout, "valid")
			return nil
		},
	}
}

func newReduceCommand() *cli.Command {
	return &cli.Command{
		Name:      "reduce",
		Usage:     "Reduce an expression, optionally against an item",
		ArgsUsage: "<expression>",
		Flags:     []cli.Flag{itemFileFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			expr, err := parseFromArgsOrStdin(cmd)
			if err != nil {
				return err
			}
			item, err := loadItem(cmd.String(itemFileFlag.Name))
			if err != nil {
				return err
			}
			reduced, err := cql2.Reduce(expr, item)
			if err != nil {
				return err
			}
			text, err := cql2.ToText(reduced)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, text)
			return nil
		},
	}
}

func newSQLCommand() *cli.Command {
	return &cli.Command{
		Name:      "sql",
		Usage:     "Emit a parameterized SQL WHERE fragment",
		ArgsUsage: "<expression>",
		Flags:     []cli.Flag{dialectFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			expr, err := parseFromArgsOrStdin(cmd)
			if err != nil {
				return err
			}
			dialect, err := parseDialect(cmd.String(dialectFlag.Name))
			if err != nil {
				return err
			}
			query, err := cql2.ToSQL(expr, dialect)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, query.Query)
			for i, p := range query.Params {
				fmt.Fprintf(os.Stdout, "$%d = %v\n", i+1, p)
			}
			return nil
		},
	}
}

func parseDialect(name string) (cql2.Dialect, error) {
	switch name {
	case "", "default":
		return cql2.DialectDefault, nil
	case "duckdb":
		return cql2.DialectDuckDB, nil
	}
	return cql2.DialectDefault, fmt.Errorf("unknown dialect %q", name)
}

func parseFromArgsOrStdin(cmd *cli.Command) (cql2.Expr, error) {
	if cmd.Args().Len() > 0 {
		return cql2.ParseAuto([]byte(cmd.Args().First()))
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, &cql2.IoError{Path: "<stdin>", Cause: err}
	}
	return cql2.ParseAuto(data)
}

func loadItem(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &cql2.IoError{Path: path, Cause: err}
	}
	item, err := cql2.DecodeItem(data)
	if err != nil {
		return nil, &cql2.IoError{Path: path, Cause: err}
	}
	return item, nil
}

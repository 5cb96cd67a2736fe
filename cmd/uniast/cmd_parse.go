package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/uniast/format"
	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/parser"
	"github.com/dhamidi/uniast/syntax"
)

func newParseCmd() *cobra.Command {
	var languageID string
	var outputFormat string
	var indent string
	var check bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a file or stdin and print its syntax tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "-"
			if len(args) > 0 {
				filename = args[0]
			}

			code, err := readSource(filename)
			if err != nil {
				return err
			}

			if languageID == "" {
				lang, ok := grammar.Detect(filename)
				if !ok {
					return fmt.Errorf("cannot detect the language of %s, use --lang", filename)
				}
				languageID = lang
			}

			prog, err := parser.Default().ParseWithTimeout(cmd.Context(), code, languageID, timeout)
			if err != nil {
				return err
			}

			var encoder format.Encoder
			switch outputFormat {
			case "json":
				encoder = format.NewJSONEncoder(os.Stdout).SetIndent(indent)
			default:
				encoder, err = format.New(outputFormat, os.Stdout)
				if err != nil {
					return err
				}
			}
			if err := encoder.Encode(prog); err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			if check {
				return checkProgram(filename, code, prog)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageID, "lang", "l", "", "language identifier (detected from the file extension by default)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, tree, lines, msgpack)")
	cmd.Flags().StringVar(&indent, "indent", "", "indent JSON output with this string")
	cmd.Flags().BoolVar(&check, "check", false, "verify tree invariants and fail on syntax errors")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "give up after this long (0 disables)")

	return cmd
}

func readSource(filename string) (string, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return string(data), nil
}

func checkProgram(filename, code string, prog *syntax.Program) error {
	problems := syntax.Check(code, prog)
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "%s: %s\n", filename, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %d invariant violations", filename, len(problems))
	}

	if prog.HasError {
		index := syntax.NewLineIndex(code)
		for _, n := range syntax.ErrorNodes(prog.Root) {
			pos := index.Position(n.Start)
			fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", filename, pos.Line+1, pos.Column+1, errorColor.Sprint(describeError(n)))
		}
		return fmt.Errorf("%s: syntax errors", filename)
	}
	return nil
}

func describeError(n *syntax.TreeNode) string {
	if n.Kind == "ERROR" {
		return "syntax error"
	}
	return "missing " + n.Kind
}


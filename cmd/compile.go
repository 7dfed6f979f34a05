package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/nucleator/internal/compiler"
	"github.com/conneroisu/nucleator/internal/mockdata"
	"github.com/conneroisu/nucleator/internal/registry"
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a Nucleus source file to HTML",
	Long: `Compile a single Nucleus source file into a standalone HTML document.
Reads from stdin when the file argument is "-" or omitted.

Examples:
  nucleator compile page.ncl                    # Write HTML to stdout
  nucleator compile page.ncl -o page.html       # Write to a file
  nucleator compile page.ncl --data demo.yaml   # Custom preview context
  cat page.ncl | nucleator compile              # Compile from stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	compileCmd.Flags().String("style", "", "stylesheet file appended to the base styles")
	compileCmd.Flags().String("data", "", "mock data file (json or yaml)")
	compileCmd.Flags().String("title", "", "document title fallback")
	compileCmd.Flags().String("fragments", "", "directory of fragment files")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source, err := readSource(args)
	if err != nil {
		return err
	}

	style := ""
	if path, _ := cmd.Flags().GetString("style"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading stylesheet: %w", err)
		}
		style = string(raw)
	} else if cfg.Preview.Style != "" {
		style = cfg.Preview.Style
	}

	ctx := mockdata.DefaultContext()
	dataPath, _ := cmd.Flags().GetString("data")
	if dataPath == "" {
		dataPath = cfg.Preview.MockData
	}
	if dataPath != "" {
		ctx, err = mockdata.LoadFile(dataPath)
		if err != nil {
			return err
		}
	}

	fragDir, _ := cmd.Flags().GetString("fragments")
	if fragDir == "" {
		fragDir = cfg.Fragments.Dir
	}
	reg := registry.NewFragmentRegistry()
	if fragDir != "" {
		if _, statErr := os.Stat(fragDir); statErr == nil {
			for _, scanErr := range reg.Scan(fragDir, cfg.Fragments.Extensions, cfg.Fragments.ExcludePatterns) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", scanErr)
			}
		}
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = cfg.Preview.Title
	}

	html := compiler.Compile(source, style, reg.Lookup(), compiler.Options{
		Title: title,
		Data:  ctx,
	})

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), html)
		return nil
	}
	return os.WriteFile(out, []byte(html+"\n"), 0o644)
}

func readSource(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(raw), nil
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(raw), nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appanalysis "github.com/bryanwahyu/whatif/internal/application/analysis"
	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/middleware"
)

func AnalyzeCmd(load loader) *cobra.Command {
	var (
		name     string
		codeFile string
		format   string
		token    string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (text or json)", format)
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			var code string
			if codeFile != "" {
				b, err := os.ReadFile(codeFile)
				if err != nil {
					return err
				}
				code = string(b)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			svc, st, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.DB.Close()
			}

			out, err := svc.Analyze(ctx, appanalysis.AnalyzeCommand{
				ComponentName: middleware.SanitizeString(name),
				ComponentCode: middleware.SanitizeCode(code),
				IDToken:       token,
			})
			if err != nil {
				return err
			}
			for _, w := range out.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			w := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return analysis.RenderText(w, out.Result)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "component name")
	cmd.Flags().StringVar(&codeFile, "code-file", "", "file with the component source")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&token, "token", os.Getenv("WHATIF_TOKEN"), "bearer token to save the result to history")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/spf13/cobra"
)

func newRenderCommand(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "render [path...]",
		Short: "Render the app and print the document",
		Long: `Build the app in an in-memory document, navigate through each given
path in order, and print the resulting document.

Paths that match no route leave the mounted page in place, exactly as
they would in a browser.

Formats:
  html       The serialized document (default)
  markdown   The document converted to CommonMark`,
		Example: `  weave render
  weave render /about
  weave render --config site.toml --format markdown / /posts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, format, args)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format: html|markdown")
	return cmd
}

func runRender(cmd *cobra.Command, opts *options, format string, paths []string) error {
	switch format {
	case "html", "markdown", "md":
	default:
		return fmt.Errorf("unknown format %q (use html or markdown)", format)
	}

	a, _, err := setup(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	a.Navigate(paths...)

	out := a.Doc.HTML()
	if format != "html" {
		if out, err = toMarkdown(out); err != nil {
			return fmt.Errorf("convert to markdown: %w", err)
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func toMarkdown(page string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(page)
}

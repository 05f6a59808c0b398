package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tplmgr/domtarget"
)

func renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render one template and print the result",
		Long: `
Fetches the named template, renders it with the given variables and prints the fragment.
With --document the fragment is appended to the elements matching --selector in that
HTML file and the whole document is printed instead.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			flags := cmd.Flags()
			sets, err := flags.GetStringArray("set")
			if err != nil {
				return fmt.Errorf("failed to get `--set`: %w", err)
			}
			varsFile, _ := flags.GetString("vars-file")
			document, _ := flags.GetString("document")
			selector, _ := flags.GetString("selector")
			sanitize, _ := flags.GetBool("sanitize")

			vars, err := loadVars(varsFile, sets)
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.manager.Fetch(s.ctx, name); err != nil {
				return err
			}

			if document == "" {
				out, err := s.manager.Render(name, vars)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}

			doc, err := readDocument(document)
			if err != nil {
				return err
			}
			var opts []domtarget.Option
			if sanitize {
				opts = append(opts, domtarget.WithPolicy(domtarget.UGCPolicy()))
			}
			if err := s.manager.RenderInTarget(name, vars, doc.Select(selector, opts...)); err != nil {
				return err
			}
			out, err := doc.HTML()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	sourceFlags(cmd.Flags())
	cmd.Flags().StringArray("set", nil, "Template variable as key=value; dotted keys build nested maps (repeatable)")
	cmd.Flags().String("vars-file", "", "YAML file with template variables; --set values override it")
	cmd.Flags().String("document", "", "HTML document to render into")
	cmd.Flags().String("selector", "body", "CSS selector of the elements the fragment is appended to")
	cmd.Flags().Bool("sanitize", false, "Sanitise the fragment with a user-generated-content policy before inserting it")
	return cmd
}

func readDocument(path string) (*domtarget.Document, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() { _ = f.Close() }()
	return domtarget.Parse(f)
}

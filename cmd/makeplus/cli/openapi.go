package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/makeplus/makeplus-api/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		serverURL  string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI 3.1 document describing every route the server mounts,
including request bodies derived from the validation rules.`,
		Example: `  makeplus openapi                                   # print to stdout
  makeplus openapi --server https://api.makeplus.fr -o openapi.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := openapi.Generate(openapi.Info{
				Title:     "Makeplus API",
				Version:   versionString(),
				ServerURL: serverURL,
			}, openapi.Routes())

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("render openapi document: %w", err)
			}
			data = append(data, '\n')

			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL to list in the document")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the document to a file instead of stdout")

	return cmd
}

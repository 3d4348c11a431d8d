package main

import (
	"fmt"
	"os"

	"wisefido-directory/internal/export"

	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		format string
		output string
		query  string
	)
	cmd := &cobra.Command{
		Use:   "export [files...]",
		Short: "Import files and write an Excel sheet, tag export or session blob",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadOffline(cmd, args)
			if err != nil {
				return err
			}
			store.SetSearchQuery(query)

			var data []byte
			switch format {
			case "xlsx":
				data, err = export.GenerateRoomExport(store.FilteredData(), store)
			case "tags":
				data, err = store.ExportTags()
			case "session":
				var blob string
				blob, err = store.ExportSession()
				data = []byte(blob)
			default:
				return fmt.Errorf("unknown format %q (xlsx, tags, session)", format)
			}
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Output format: xlsx, tags or session")
	cmd.Flags().StringVarP(&output, "output", "o", "rooms.xlsx", "Output path, - for stdout")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only export rooms matching this query (xlsx)")
	return cmd
}

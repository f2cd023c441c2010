package cmd

import (
	"fmt"
	"os"

	"github.com/fairybow/fernanda/internal/archive"
	"github.com/fairybow/fernanda/internal/statusline"
	"github.com/fairybow/fernanda/pkg/fernanda"
	"github.com/spf13/cobra"
)

// newCmd creates a brand-new notebook archive at path. Unlike SaveAll,
// which no-ops on an unmodified workspace, this always writes the
// Manifest and compresses the archive so the ".fnx" file exists on disk
// the moment the command returns.
var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create a new notebook archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := statusline.New(os.Stdout)
		path := args[0]

		ws, err := fernanda.NewNotebook(path)
		if err != nil {
			status.Failure(fmt.Sprintf("%s: %v", path, err))
			return err
		}
		defer ws.Close()

		if err := ws.Manifest.Write(ws.WorkingDir.Path()); err != nil {
			status.Failure(fmt.Sprintf("%s: %v", path, err))
			return err
		}
		if err := archive.Compress(path, ws.WorkingDir.Path()); err != nil {
			status.Failure(fmt.Sprintf("%s: %v", path, err))
			return err
		}

		status.Success(fmt.Sprintf("created %s", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}

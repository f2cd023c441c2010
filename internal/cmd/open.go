package cmd

import (
	"fmt"
	"os"

	"github.com/fairybow/fernanda/internal/statusline"
	"github.com/fairybow/fernanda/pkg/fernanda"
	"github.com/spf13/cobra"
)

// openCmd implements §6.4's launch-argument contract: zero paths opens
// an empty Notepad workspace, and one or more paths opens each as a
// Notebook (".fnx" archive) or a plain file in a Notepad workspace,
// classified by archive.IsFnxFile.
var openCmd = &cobra.Command{
	Use:   "open [path...]",
	Short: "Open a notebook archive or one or more plain files",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := statusline.New(os.Stdout)

		if len(args) == 0 {
			fernanda.NewNotepad()
			status.Neutral("opened an empty notepad")
			return nil
		}

		for _, path := range args {
			_, err := fernanda.OpenPath(path)
			if err != nil {
				status.Failure(fmt.Sprintf("%s: %v", path, err))
				continue
			}
			kind := "notepad"
			if fernanda.IsNotebookPath(path) {
				kind = "notebook"
			}
			status.Success(fmt.Sprintf("opened %s (%s)", path, kind))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

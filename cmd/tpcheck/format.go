package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagWrite bool

var formatCmd = &cobra.Command{
	Use:   "format [files...]",
	Short: "Reformat TP program files",
	Long:  "Reformat sends each file to the remote formatter. The result is printed to stdout, or written back in place with --write.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write results back to the source files")
}

func runFormat(cmd *cobra.Command, args []string) error {
	_, _, client, err := setup()
	if err != nil {
		return err
	}

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		res, err := client.Format(cmd.Context(), string(content))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if flagWrite {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(res.Content), info.Mode().Perm()); err != nil {
				return err
			}
			continue
		}
		fmt.Print(res.Content)
	}
	return nil
}

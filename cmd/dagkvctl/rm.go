package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dagkv/pkg/view"
)

var rmCmd = &cobra.Command{
	Use:   "rm <tag> <step>...",
	Short: "Delete the value at a path, committing the removal to the branch",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		h, err := s.engine.OfTag(taskFromCmd(cmd), args[0])
		if err != nil {
			return err
		}

		v := view.Open[string, string](h, s.engine.Graph(), s.engine.Capability())
		if err := v.Delete(args[1:]); err != nil {
			return err
		}
		newHead, err := v.Commit(taskFromCmd(cmd, fmt.Sprintf("rm %v", args[1:])), false)
		if err != nil {
			return err
		}
		fmt.Println(newHead)
		return nil
	},
}

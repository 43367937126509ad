package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dagkv/pkg/view"
)

var setCmd = &cobra.Command{
	Use:   "set <tag> <value> <step>...",
	Short: "Write a value at a path, committing it to the branch",
	Args:  cobra.MinimumNArgs(3),
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
		if err := v.Write(args[2:], args[1]); err != nil {
			return err
		}
		newHead, err := v.Commit(taskFromCmd(cmd, fmt.Sprintf("set %v", args[2:])), false)
		if err != nil {
			return err
		}
		fmt.Println(newHead)
		return nil
	},
}

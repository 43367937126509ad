package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dagkv/pkg/snapshot"
)

var lsCmd = &cobra.Command{
	Use:   "ls <tag> [step]...",
	Short: "List the immediate steps present at a path in a branch's current head",
	Args:  cobra.MinimumNArgs(1),
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

		snap := snapshot.Of[string, string](s.engine, h)
		steps, err := snap.List(args[1:])
		if err != nil {
			return err
		}
		for _, step := range steps {
			fmt.Println(step)
		}
		return nil
	},
}

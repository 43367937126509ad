package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dagkv/pkg/snapshot"
)

var getCmd = &cobra.Command{
	Use:   "get <tag> <step>...",
	Short: "Read the value at a path from a branch's current head",
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
		snap := snapshot.Of[string, string](s.engine, h)
		val, ok, err := snap.Find(args[1:])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not found")
		}
		fmt.Println(val)
		return nil
	},
}

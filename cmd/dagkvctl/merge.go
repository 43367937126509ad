package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <tag> <other>",
	Short: "Three-way merge another branch's tip into a branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		h, err := s.engine.OfTag(taskFromCmd(cmd, fmt.Sprintf("merge %s", args[1])), args[0])
		if err != nil {
			return err
		}
		newHead, err := h.Merge(args[1])
		if err != nil {
			return err
		}
		fmt.Println(newHead)
		return nil
	},
}

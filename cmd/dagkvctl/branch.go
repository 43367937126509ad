package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"dagkv/pkg/branch"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Create and list branch tags",
}

var branchCreateCmd = &cobra.Command{
	Use:   "create <tag>",
	Short: "Create a new branch tag at the zero (empty) head",
	Args:  cobra.ExactArgs(1),
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
		if err := h.UpdateTag(args[0]); err != nil {
			if err == branch.ErrDuplicatedTag {
				return fmt.Errorf("branch %q already exists", args[0])
			}
			return err
		}
		fmt.Printf("created branch %q at %s\n", args[0], h.Head())
		return nil
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every branch tag and its current head",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		heads, err := s.engine.Refs().Dump()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(heads))
		for tag := range heads {
			names = append(names, tag)
		}
		sort.Strings(names)
		for _, tag := range names {
			fmt.Printf("%s\t%s\n", tag, heads[tag])
		}
		return nil
	},
}

func init() {
	branchCmd.AddCommand(branchCreateCmd, branchListCmd)
}

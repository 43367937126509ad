package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dagkv/pkg/snapshot"
)

var watchCmd = &cobra.Command{
	Use:   "watch <tag>",
	Short: "Print a snapshot each time a branch tag's head changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stream, err := snapshot.Watch[string, string](s.engine, args[0])
		if err != nil {
			return err
		}
		defer stream.Close()

		for {
			pair, ok := stream.Next()
			if !ok {
				return nil
			}
			fmt.Printf("%s -> %s\n", pair.Tag, pair.Snapshot.Head())
		}
	},
}

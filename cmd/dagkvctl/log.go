package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dagkv/pkg/graph"
	"dagkv/pkg/id"
)

var logCmd = &cobra.Command{
	Use:   "log <tag>",
	Short: "Show a branch's commit history, newest first",
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
		if h.Head().IsZero() {
			return nil
		}

		g := s.engine.Graph()
		hashes, err := g.Walk(context.Background(), []id.Hash{h.Head()}, graph.WalkOptions{Mode: graph.ModeHistory})
		if err != nil {
			return err
		}

		type entry struct {
			hash     id.Hash
			date     int64
			owner    string
			messages []string
		}
		entries := make([]entry, 0, len(hashes))
		for hash := range hashes {
			c, err := g.LoadCommit(hash)
			if err != nil {
				return err
			}
			entries = append(entries, entry{hash: hash, date: c.Task.Date, owner: c.Task.Owner, messages: c.Task.Messages})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].date > entries[j].date })

		for _, e := range entries {
			when := time.Unix(e.date, 0)
			fmt.Printf("%s  %s (%s)  %s  %v\n", e.hash, when.Format(time.RFC3339), humanize.Time(when), e.owner, e.messages)
		}
		return nil
	},
}

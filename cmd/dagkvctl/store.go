package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dagkv/pkg/branch"
	"dagkv/pkg/cas"
	"dagkv/pkg/commit"
	"dagkv/pkg/config"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/refstore"
)

// store bundles the branch engine opened for one CLI invocation with the
// backend resources it needs closed afterward.
type store struct {
	engine  *branch.Engine[string, string]
	closers []func() error
}

func (s *store) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openStore opens a branch engine over contents.String/string tags,
// backed by in-memory stores if --root is unset or by file-backed CAS and
// ref stores under --root otherwise (spec §6's "root" configuration key).
func openStore(cmd *cobra.Command) (*store, error) {
	rootFlag, _ := cmd.Flags().GetString("root")
	cacheFlag, _ := cmd.Flags().GetInt("cache-size")
	cfg := config.Dict{}
	if rootFlag != "" {
		cfg["root"] = config.String(rootFlag)
	}
	if cacheFlag != 0 {
		cfg["cache_size"] = config.Int(int64(cacheFlag))
	}
	rootDir := config.Root.Get(cfg)
	cacheSize := int(config.CacheSize.Get(cfg))

	if rootDir == "" {
		nodes := cas.NewMemoryStore(nil)
		leaves := cas.NewMemoryStore(nil)
		commits := commit.NewManager(cas.NewMemoryStore(nil))
		g := graph.New(nodes, leaves, commits)
		refs := refstore.NewMemoryStore[string]("dagkvctl")
		return &store{engine: branch.New[string, string](refs, g, contents.String, "dagkvctl")}, nil
	}

	var nodes, leaves, commitStore cas.Store
	fileNodes, err := cas.NewFileStore(filepath.Join(rootDir, "nodes"), nil)
	if err != nil {
		return nil, fmt.Errorf("open node store: %w", err)
	}
	fileLeaves, err := cas.NewFileStore(filepath.Join(rootDir, "contents"), nil)
	if err != nil {
		return nil, fmt.Errorf("open contents store: %w", err)
	}
	fileCommits, err := cas.NewFileStore(filepath.Join(rootDir, "commits"), nil)
	if err != nil {
		return nil, fmt.Errorf("open commit store: %w", err)
	}
	refs, err := refstore.NewFileStore[string](filepath.Join(rootDir, "refs"), refstore.StringCodec{}, "dagkvctl")
	if err != nil {
		return nil, fmt.Errorf("open ref store: %w", err)
	}

	nodes, leaves, commitStore = fileNodes, fileLeaves, fileCommits
	if cacheSize > 0 {
		// Path lookups and ancestor walks reread the same nodes and
		// commits repeatedly (spec §4.4); a read-through LRU in front of
		// the file backend avoids re-hitting disk for them.
		nodes, err = cas.NewCachedStore(fileNodes, cacheSize)
		if err != nil {
			return nil, fmt.Errorf("wrap node store with cache: %w", err)
		}
		commitStore, err = cas.NewCachedStore(fileCommits, cacheSize)
		if err != nil {
			return nil, fmt.Errorf("wrap commit store with cache: %w", err)
		}
	}

	g := graph.New(nodes, leaves, commit.NewManager(commitStore))
	return &store{
		engine:  branch.New[string, string](refs, g, contents.String, "dagkvctl"),
		closers: []func() error{fileNodes.Close, fileLeaves.Close, fileCommits.Close, refs.Close},
	}, nil
}

func taskFromCmd(cmd *cobra.Command, messages ...string) commit.Task {
	owner, _ := cmd.Flags().GetString("owner")
	return commit.NewTask(owner, messages...)
}

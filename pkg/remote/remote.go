// Package remote implements the external Remote capability of spec
// §4.8 Sync and §6: a two-method collaborator the core drives but never
// implements the wire protocol for (spec §1 lists "the wire protocol for
// remote fetch/push" as explicitly out of scope). No teacher analog —
// this package defines the capability interface, an in-process Peer
// implementation usable for tests and single-process multi-store setups,
// and the thin Fetch/Push driver functions that decode the capability's
// opaque hex head into an id.Hash.
package remote

import (
	"dagkv/pkg/id"
)

// Config carries backend-specific remote settings (auth, transport
// options). Kept as a plain string map rather than routed through
// pkg/config: the capability boundary itself needs no typed accessors.
type Config map[string]string

// Capability is spec §6's Remote capability: fetch/push report the
// opaque hex head that resulted from talking to uri, or nil if nothing
// applicable was found. Heads are plain strings (not id.Hash) so an
// implementation crossing an actual wire does not need pkg/id.
type Capability interface {
	Fetch(config Config, uri string, depth *int) (*string, error)
	Push(config Config, uri string, depth *int) (*string, error)
}

// Fetch calls r.Fetch and decodes its result into an id.Hash. ok is
// false when the remote reported no applicable head.
func Fetch(r Capability, config Config, uri string, depth *int) (id.Hash, bool, error) {
	return decode(r.Fetch(config, uri, depth))
}

// Push calls r.Push and decodes its result into an id.Hash. ok is false
// when the remote reported no applicable head.
func Push(r Capability, config Config, uri string, depth *int) (id.Hash, bool, error) {
	return decode(r.Push(config, uri, depth))
}

func decode(headStr *string, err error) (id.Hash, bool, error) {
	if err != nil {
		return id.Hash{}, false, err
	}
	if headStr == nil {
		return id.Hash{}, false, nil
	}
	h, err := id.Parse(*headStr)
	if err != nil {
		return id.Hash{}, false, err
	}
	return h, true, nil
}

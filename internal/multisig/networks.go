package multisig

import (
	"fmt"
	"math/big"
	"sort"
)

// Networks is the set of chains the client is allowed to talk to, keyed by
// chain id.
type Networks map[uint64]string

var knownNetworks = Networks{
	1:        "ethereum",
	11155111: "sepolia",
	2151:     "bosagora_mainnet",
	2019:     "bosagora_testnet",
	24680:    "bosagora_devnet",
	31337:    "localhost",
}

func DefaultNetworks() Networks {
	networks := make(Networks, len(knownNetworks))
	for id, name := range knownNetworks {
		networks[id] = name
	}
	return networks
}

// NetworksFromIDs restricts the supported set to ids. Ids outside the known
// table get a generic name.
func NetworksFromIDs(ids []uint64) Networks {
	if len(ids) == 0 {
		return DefaultNetworks()
	}
	networks := make(Networks, len(ids))
	for _, id := range ids {
		if name, ok := knownNetworks[id]; ok {
			networks[id] = name
			continue
		}
		networks[id] = fmt.Sprintf("chain-%d", id)
	}
	return networks
}

func (n Networks) Lookup(chainID *big.Int) (string, bool) {
	if chainID == nil || !chainID.IsUint64() {
		return "", false
	}
	name, ok := n[chainID.Uint64()]
	return name, ok
}

func (n Networks) IDs() []uint64 {
	ids := make([]uint64, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

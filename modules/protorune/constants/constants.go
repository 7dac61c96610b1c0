package constants

import (
	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/subfrost/runicbtcfederation/common"
	"github.com/subfrost/runicbtcfederation/core/types"
)

const (
	Version   = "v0.1.0"
	DBVersion = 1
)

// HeightInterval is the number of blocks between each step down of the minimum rune name.
const HeightInterval = 17_500

// GenesisHeight is the first height at which runestones are decoded, per network.
var GenesisHeight = map[common.Network]uint64{
	common.NetworkMainnet: common.HalvingInterval * 4,
	common.NetworkTestnet: common.HalvingInterval * 12,
	common.NetworkRegtest: 0,
}

// StartingBlockHeader is the block the indexer resumes from when nothing is indexed yet.
// Networks without an entry are indexed from height 0.
var StartingBlockHeader = map[common.Network]types.BlockHeader{
	common.NetworkMainnet: {
		Height: 839999,
		Hash:   *utils.Must(chainhash.NewHashFromStr("0000000000000000000172014ba58d66455762add0512355ad651207918494ab")),
	},
}

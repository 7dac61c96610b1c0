package entity

import "github.com/subfrost/runicbtcfederation/common"

type IndexerState struct {
	DBVersion int32
	Network   common.Network
}

// Package slogx provides typed slog attributes, including the indexer's domain values.
package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

// ErrorKey is the attribute key of logged errors.
const ErrorKey = "error"

// Error returns an attr for err. A nil error gives an empty attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(ErrorKey, err)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Uint64(key string, value uint64) slog.Attr {
	return slog.Uint64(key, value)
}

func Uint32(key string, value uint32) slog.Attr {
	return slog.Uint64(key, uint64(value))
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Height is the block height attached to every record emitted while a block is indexed.
func Height(height uint64) slog.Attr {
	return slog.Uint64("height", height)
}

func TxHash(hash fmt.Stringer) slog.Attr {
	return slog.String("tx_hash", hash.String())
}

func RuneId(id fmt.Stringer) slog.Attr {
	return slog.String("rune_id", id.String())
}

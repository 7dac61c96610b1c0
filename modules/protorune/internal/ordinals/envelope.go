// Package ordinals reads inscription envelopes from taproot script-path spends.
package ordinals

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/core/types"
)

var protocolId = []byte("ord")

// tagContentType is the envelope field holding the MIME type of the body.
const tagContentType byte = 1

type Inscription struct {
	ContentType string
	Body        []byte
}

type Envelope struct {
	Inscription Inscription
	InputIndex  uint32 // Index of input that contains the envelope
	Offset      int    // Number of envelope in the input
}

func ParseEnvelopesFromTx(tx *types.Transaction) []Envelope {
	envelopes := make([]Envelope, 0)
	for i, txIn := range tx.TxIn {
		tapScript, ok := extractTapScript(txIn.Witness)
		if !ok {
			continue
		}
		envelopes = append(envelopes, envelopesFromTapScript(tapScript, uint32(i))...)
	}
	return envelopes
}

// FindInscription returns the first inscription revealed by tx, scanning inputs in order.
func FindInscription(tx *types.Transaction) (Inscription, bool) {
	envelopes := ParseEnvelopesFromTx(tx)
	if len(envelopes) == 0 {
		return Inscription{}, false
	}
	return envelopes[0].Inscription, true
}

func envelopesFromTapScript(tokenizer txscript.ScriptTokenizer, inputIndex uint32) []Envelope {
	var envelopes []Envelope
	for tokenizer.Next() {
		if tokenizer.Opcode() != txscript.OP_FALSE {
			continue
		}
		payload, ok := envelopePayload(&tokenizer)
		if !ok {
			continue
		}
		envelopes = append(envelopes, Envelope{
			Inscription: inscriptionFromPayload(payload),
			InputIndex:  inputIndex,
			Offset:      len(envelopes),
		})
	}
	return envelopes
}

// envelopePayload reads the pushes of an `OP_FALSE OP_IF "ord" ... OP_ENDIF` envelope. The tokenizer
// must be positioned on the OP_FALSE.
func envelopePayload(tokenizer *txscript.ScriptTokenizer) ([][]byte, bool) {
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_IF {
		return nil, false
	}
	if !tokenizer.Next() || !bytes.Equal(tokenizer.Data(), protocolId) {
		return nil, false
	}

	payload := make([][]byte, 0)
	for tokenizer.Next() {
		opCode := tokenizer.Opcode()
		switch {
		case opCode == txscript.OP_ENDIF:
			return payload, true
		case opCode == txscript.OP_0:
			payload = append(payload, []byte{})
		case opCode == txscript.OP_1NEGATE:
			payload = append(payload, []byte{0x81})
		case opCode >= txscript.OP_1 && opCode <= txscript.OP_16:
			payload = append(payload, []byte{opCode - txscript.OP_1 + 1})
		default:
			data := tokenizer.Data()
			if data == nil {
				return nil, false
			}
			payload = append(payload, data)
		}
	}
	// incomplete envelope
	return nil, false
}

// inscriptionFromPayload splits a payload at the body separator, an empty push in a tag position.
func inscriptionFromPayload(payload [][]byte) Inscription {
	bodyIndex := -1
	for i, value := range payload {
		if i%2 == 0 && len(value) == 0 {
			bodyIndex = i
			break
		}
	}
	fieldPayloads := payload
	var inscription Inscription
	if bodyIndex != -1 {
		fieldPayloads = payload[:bodyIndex]
		inscription.Body = lo.Flatten(payload[bodyIndex+1:])
	}

	for _, chunk := range lo.Chunk(fieldPayloads, 2) {
		if len(chunk) != 2 {
			break
		}
		if chunk[0][0] == tagContentType && inscription.ContentType == "" {
			inscription.ContentType = string(chunk[1])
		}
	}
	return inscription
}

func extractTapScript(witness [][]byte) (txscript.ScriptTokenizer, bool) {
	witness = removeAnnexFromWitness(witness)
	if len(witness) < 2 {
		return txscript.ScriptTokenizer{}, false
	}
	script := witness[len(witness)-2]

	return txscript.MakeScriptTokenizer(0, script), true
}

func removeAnnexFromWitness(witness [][]byte) [][]byte {
	if len(witness) >= 2 && len(witness[len(witness)-1]) > 0 && witness[len(witness)-1][0] == txscript.TaprootAnnexTag {
		return witness[:len(witness)-1]
	}
	return witness
}

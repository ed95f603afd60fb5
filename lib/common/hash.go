package common

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/rlp"
)

func MakeHash(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func MakeObjectHash(i interface{}) (b []byte, err error) {
	var e []byte
	if e, err = rlp.EncodeToBytes(i); err != nil {
		return
	}

	b = MakeHash(e)

	return
}

func MustMakeObjectHashString(i interface{}) string {
	b, _ := MakeObjectHash(i)
	return base58.Encode(b)
}

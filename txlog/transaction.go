package txlog

import (
	"bytes"
	"io"
	"math/big"
)

// Transaction is one delivered record: the sequence position the backend
// assigned on append plus the opaque payload.
type Transaction struct {
	seq  *big.Int
	data []byte
}

// SequenceNumber returns the position assigned by the stream. Positions
// are strictly increasing within the shard and arbitrarily large.
func (t *Transaction) SequenceNumber() *big.Int {
	return t.seq
}

// Reader returns a fresh read-only view over the transaction body. Each
// call starts at the beginning.
func (t *Transaction) Reader() io.Reader {
	return bytes.NewReader(t.data)
}

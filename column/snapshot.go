package column

import "encoding/binary"
import "io"

import "github.com/bnclabs/colstore/api"
import "github.com/pierrec/lz4/v4"

// Snapshot bundles the serializable pieces of a key column: the
// valid-entries bit vector selecting the populated slots and the key
// array holding them. The wire image is lz4-framed: an 8-byte little
// endian entry count, the bit vector bytes, then the selected
// length-prefixed keys.
type Snapshot struct {
	Count  int64
	Valids *Bitvector
	Keys   *Keyarray
}

// Write the snapshot, compressed, onto w.
func (snap *Snapshot) Write(w io.Writer) error {
	if w == nil || snap.Valids == nil || snap.Keys == nil {
		return api.ErrorNullArgument
	}
	zw := lz4.NewWriter(w)
	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(snap.Count))
	if _, err := zw.Write(header[:]); err != nil {
		return err
	}
	if err := snap.Valids.Write(zw, snap.Count); err != nil {
		return err
	}
	if err := snap.Keys.Write(zw, snap.Count, snap.Valids); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	infof("snapshot: wrote %v entries\n", snap.Count)
	return nil
}

// Read a snapshot from r into the supplied containers, which must be
// empty. Count is set from the wire image.
func (snap *Snapshot) Read(r io.Reader) error {
	if r == nil || snap.Valids == nil || snap.Keys == nil {
		return api.ErrorNullArgument
	}
	zr := lz4.NewReader(r)
	var header [8]byte
	if _, err := io.ReadFull(zr, header[:]); err != nil {
		return err
	}
	count := int64(binary.LittleEndian.Uint64(header[:]))
	if err := snap.Valids.Read(zr, count); err != nil {
		return err
	}
	if err := snap.Keys.Read(zr, count, snap.Valids); err != nil {
		return err
	}
	snap.Count = count
	infof("snapshot: read %v entries\n", snap.Count)
	return nil
}

package empire

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	apperrors "empires-server/internal/shared/errors"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// EncodedSnapshot is the stored form of a Snapshot: lz4-compressed JSON and
// the blake3 hash of the uncompressed JSON.
type EncodedSnapshot struct {
	EmpireID int
	Blob     []byte
	Hash     string
	RawSize  int
}

func EncodeSnapshot(s Snapshot) (EncodedSnapshot, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return EncodedSnapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return EncodedSnapshot{}, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return EncodedSnapshot{}, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	return EncodedSnapshot{
		EmpireID: s.EmpireID,
		Blob:     buf.Bytes(),
		Hash:     hashSnapshot(raw),
		RawSize:  len(raw),
	}, nil
}

// DecodeSnapshot reverses EncodeSnapshot and fails with ErrSnapshotCorrupted
// when the content does not match the stored hash.
func DecodeSnapshot(enc EncodedSnapshot) (Snapshot, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(enc.Blob)))
	if err != nil {
		return Snapshot{}, apperrors.WrapInternal("decompress snapshot", fmt.Errorf("%w: %w", ErrSnapshotCorrupted, err))
	}
	if got := hashSnapshot(raw); got != enc.Hash {
		return Snapshot{}, apperrors.WrapInternal(
			fmt.Sprintf("snapshot of empire %d", enc.EmpireID),
			fmt.Errorf("%w: got %s want %s", ErrSnapshotCorrupted, got, enc.Hash),
		)
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return s, nil
}

func hashSnapshot(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

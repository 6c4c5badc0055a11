// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issuestore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/liaisonhq/liaison/lib/codec"
)

// Comment blob encoding tags. Stored as the first byte of the comments
// column; these values are storage-format constants, changing them
// breaks existing databases.
const (
	blobTagRaw  byte = 0 // CBOR payload stored as-is
	blobTagZstd byte = 2 // CBOR payload compressed with zstd
)

// compressThreshold is the CBOR payload size in bytes past which the
// comments blob is zstd-compressed. Below it, compression overhead
// outweighs the savings for short comment lists.
const compressThreshold = 512

// zstdEncoder and zstdDecoder are reused across calls to avoid repeated
// initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("issue store: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("issue store: zstd decoder initialization failed: " + err.Error())
	}
}

// encodeComments serializes a comment list to its stored blob form:
// a tag byte followed by deterministic CBOR, zstd-compressed when the
// payload exceeds compressThreshold and compression actually shrinks
// it. An empty list encodes to nil (stored as NULL).
func encodeComments(comments []Comment) ([]byte, error) {
	if len(comments) == 0 {
		return nil, nil
	}

	payload, err := codec.Marshal(comments)
	if err != nil {
		return nil, fmt.Errorf("issue store: encoding comments: %w", err)
	}

	if len(payload) >= compressThreshold {
		compressed := zstdEncoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		if len(compressed) < len(payload) {
			return append([]byte{blobTagZstd}, compressed...), nil
		}
		// Incompressible: fall through to raw storage.
	}

	blob := make([]byte, 0, len(payload)+1)
	blob = append(blob, blobTagRaw)
	return append(blob, payload...), nil
}

// decodeComments reverses encodeComments. A nil or empty blob decodes
// to an empty list.
func decodeComments(blob []byte) ([]Comment, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	payload := blob[1:]
	switch blob[0] {
	case blobTagRaw:

	case blobTagZstd:
		decompressed, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("issue store: decompressing comments: %w", err)
		}
		payload = decompressed

	default:
		return nil, fmt.Errorf("issue store: unknown comment blob tag %d", blob[0])
	}

	var comments []Comment
	if err := codec.Unmarshal(payload, &comments); err != nil {
		return nil, fmt.Errorf("issue store: decoding comments: %w", err)
	}
	return comments, nil
}

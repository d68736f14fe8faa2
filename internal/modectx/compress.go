package modectx

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// DefaultCompressionThreshold is the estimated size above which snapshot
// data is stored compressed.
const DefaultCompressionThreshold = 10 * 1024

func compressData(data ContextData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode context data: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress context data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress context data: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressData(payload []byte) (ContextData, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return ContextData{}, fmt.Errorf("failed to open compressed context: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return ContextData{}, fmt.Errorf("failed to decompress context: %w", err)
	}

	var data ContextData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ContextData{}, fmt.Errorf("failed to decode context data: %w", err)
	}
	return data, nil
}

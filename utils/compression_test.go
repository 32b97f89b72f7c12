package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := []byte(strings.Repeat("some chunk text that repeats nicely ", 50))

	for _, algorithm := range []CompressionAlgorithm{CompressionNone, CompressionGzip, CompressionZlib} {
		t.Run(string(algorithm), func(t *testing.T) {
			compressed, err := CompressData(data, algorithm)
			if err != nil {
				t.Fatalf("CompressData: %v", err)
			}
			decompressed, err := DecompressData(compressed, algorithm)
			if err != nil {
				t.Fatalf("DecompressData: %v", err)
			}
			if !bytes.Equal(decompressed, data) {
				t.Error("round trip lost data")
			}
		})
	}
}

func TestCompressDataUnknownAlgorithm(t *testing.T) {
	if _, err := CompressData([]byte("data"), "brotli"); err == nil {
		t.Error("unknown algorithm accepted")
	}
	if _, err := DecompressData([]byte("data"), "brotli"); err == nil {
		t.Error("unknown algorithm accepted")
	}
}

func TestCompressTextSkipsSmallPayloads(t *testing.T) {
	_, algorithm, err := CompressText("short chunk")
	if err != nil {
		t.Fatalf("CompressText: %v", err)
	}
	if algorithm != CompressionNone {
		t.Errorf("small payload compressed with %s", algorithm)
	}
}

func TestCompressTextCompressesLargePayloads(t *testing.T) {
	text := strings.Repeat("a longer repetitive chunk of document text ", 30)

	compressed, algorithm, err := CompressText(text)
	if err != nil {
		t.Fatalf("CompressText: %v", err)
	}
	if algorithm != CompressionGzip {
		t.Fatalf("algorithm = %s, want gzip", algorithm)
	}
	if len(compressed) >= len(text) {
		t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(text))
	}

	restored, err := DecompressText(compressed, algorithm)
	if err != nil {
		t.Fatalf("DecompressText: %v", err)
	}
	if restored != text {
		t.Error("round trip lost text")
	}
}

func TestCompressEmptyData(t *testing.T) {
	compressed, err := CompressData(nil, CompressionGzip)
	if err != nil {
		t.Fatalf("CompressData(nil): %v", err)
	}
	if len(compressed) != 0 {
		t.Errorf("compressed = %v, want empty", compressed)
	}
}

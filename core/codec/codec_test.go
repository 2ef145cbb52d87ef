package codec

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestJSONCodec(t *testing.T) {
	codec := JSON{}

	type entry struct {
		Name  string
		Value int
	}

	original := &entry{Name: "test", Value: 42}

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	decoded := &entry{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if *decoded != *original {
		t.Errorf("Mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestJSONCodecProtoMessage(t *testing.T) {
	data, err := JSON{}.Encode(wrapperspb.String("hi"))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if string(data) != `"hi"` {
		t.Errorf("got %s, want protojson mapping", data)
	}
}

func TestProtobufCodec(t *testing.T) {
	codec := Protobuf{}

	original := wrapperspb.Int32(42)

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	decoded := &wrapperspb.Int32Value{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if !proto.Equal(decoded, original) {
		t.Errorf("Mismatch: got %d, want %d", decoded.Value, original.Value)
	}
}

func TestProtobufCodecInvalidType(t *testing.T) {
	if _, err := (Protobuf{}).Encode("not a proto message"); err == nil {
		t.Error("Expected error for non-proto message")
	}
	if err := (Protobuf{}).Decode(nil, new(string)); err == nil {
		t.Error("Expected error for non-proto target")
	}
}

func TestForAccept(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", "json"},
		{"application/json", "json"},
		{"application/x-protobuf", "protobuf"},
		{"text/html, application/x-protobuf;q=0.9", "protobuf"},
		{"*/*", "json"},
	}
	for _, tt := range tests {
		if got := ForAccept(tt.accept).Name(); got != tt.want {
			t.Errorf("ForAccept(%q) = %s, want %s", tt.accept, got, tt.want)
		}
	}
}

func TestByName(t *testing.T) {
	if c, err := ByName("proto"); err != nil || c.Name() != "protobuf" {
		t.Errorf("ByName(proto) = %v, %v", c, err)
	}
	if _, err := ByName("msgpack"); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("ByName(msgpack) error = %v", err)
	}
}

func BenchmarkProtobufEncode(b *testing.B) {
	codec := Protobuf{}
	msg := wrapperspb.String("benchmark message with some data")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Encode(msg)
	}
}

func BenchmarkJSONEncode(b *testing.B) {
	codec := JSON{}
	data := map[string]any{
		"name":  "benchmark",
		"value": 123,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Encode(data)
	}
}

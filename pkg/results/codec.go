// Package results writes and reads the per-shard result documents and merges
// shard directories into one result set.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	lz4Extension  = ".lz4"
)

// Codec defines how a document is serialized and deserialized.
type Codec interface {
	// Encode writes the document to the writer.
	Encode(w io.Writer, doc any) error
	// Decode reads the document from the reader.
	Decode(r io.Reader, doc any) error
	// Extension returns the file extension for this codec (e.g., ".json").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty means compact JSON.
	Indent string
}

// Encode implements Codec.
func (c JSONCodec) Encode(w io.Writer, doc any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(doc)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c JSONCodec) Decode(r io.Reader, doc any) error {
	err := json.NewDecoder(r).Decode(doc)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (c JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec with yaml.v3. Documents are passed through their
// JSON form first so custom JSON encodings keep their shape.
type YAMLCodec struct{}

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	var generic any

	err = json.Unmarshal(data, &generic)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()

	err = encoder.Encode(generic)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (YAMLCodec) Decode(r io.Reader, doc any) error {
	var generic any

	err := yaml.NewDecoder(r).Decode(&generic)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	data, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	err = json.Unmarshal(data, doc)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (YAMLCodec) Extension() string {
	return yamlExtension
}

// LZ4Codec wraps another codec in an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// Encode implements Codec.
func (c LZ4Codec) Encode(w io.Writer, doc any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, doc)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c LZ4Codec) Decode(r io.Reader, doc any) error {
	return c.Inner.Decode(lz4.NewReader(r), doc)
}

// Extension implements Codec.
func (c LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// Save writes doc to dir/basename plus the codec extension.
func Save(dir, basename string, codec Codec, doc any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = codec.Encode(file, doc)
	if err != nil {
		_ = file.Close()

		return fmt.Errorf("encode %s: %w", path, err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// Load reads dir/basename plus the codec extension into doc, which must be a pointer.
func Load(dir, basename string, codec Codec, doc any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	err = codec.Decode(file, doc)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

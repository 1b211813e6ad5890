package chunkfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// ErrSchema is returned by Load when the file does not have the chunk file shape.
var ErrSchema = errors.New("chunk file does not match schema")

const chunkSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text", "source", "page", "chunk_id"],
    "properties": {
      "text": {"type": "string"},
      "source": {"type": "string"},
      "page": {"type": "integer"},
      "chunk_id": {"type": "integer"},
      "category": {"type": ["string", "null"]}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.NewCompiler().Compile([]byte(chunkSchema))
})

// validateShape checks field presence and types. Value ranges are left to
// entities.Chunk.Validate.
func validateShape(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrSchema, result.Errors)
}

// Digest returns the sha256 of the RFC 8785 canonical JSON of chunks. Equal
// chunk sets always have equal digests, whatever the file formatting.
func Digest(chunks []entities.Chunk) (string, error) {
	if chunks == nil {
		chunks = []entities.Chunk{}
	}
	raw, err := json.Marshal(chunks)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing chunks: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Package monument загружает входной документ: настройки отрисовки и сетку ячеек.
package monument

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/annel0/monument/internal/floorplan"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/monument.schema.json
var schemaText string

const schemaURL = "https://annel0.github.io/monument/monument.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Document входная запись: settings + floorplan
type Document struct {
	Settings  Settings            `json:"settings"`
	Floorplan floorplan.Floorplan `json:"floorplan"`
}

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, schemaText)
	})
	return compiledSchema, schemaErr
}

// Parse разбирает и проверяет документ.
// Отсутствующие обязательные ключи возвращаются как *MissingKeyError до проверки схемой,
// чтобы оператор видел имя ключа, а не общий отчет валидатора.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("monument document: %w", err)
	}
	for _, key := range []string{"settings", "floorplan"} {
		if _, ok := top[key]; !ok {
			return nil, &MissingKeyError{Key: key}
		}
	}

	var settings map[string]json.RawMessage
	if err := json.Unmarshal(top["settings"], &settings); err != nil {
		return nil, fmt.Errorf("monument settings: %w", err)
	}
	for _, key := range RequiredKeys {
		if raw, ok := settings[key]; !ok || string(raw) == "null" {
			return nil, &MissingKeyError{Key: key}
		}
	}

	schema, err := documentSchema()
	if err != nil {
		return nil, fmt.Errorf("monument schema: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("monument document: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("monument document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("monument document: %w", err)
	}
	return &doc, nil
}

// LoadFile читает документ из файла
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	return Parse(data)
}

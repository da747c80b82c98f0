package gemini

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// DecodeError reports a model response that could not be turned into the
// expected structure.
type DecodeError struct {
	Schema string
	Stage  string
	Raw    string
	Err    error
	Fields []string
}

func (e *DecodeError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("decode %s response (%s): %s", e.Schema, e.Stage, strings.Join(e.Fields, "; "))
	}
	return fmt.Sprintf("decode %s response (%s): %v", e.Schema, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var schemaCache = struct {
	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}{schemas: make(map[string]*gojsonschema.Schema)}

func loadSchema(name string) (*gojsonschema.Schema, error) {
	schemaCache.mu.Lock()
	defer schemaCache.mu.Unlock()

	if s, ok := schemaCache.schemas[name]; ok {
		return s, nil
	}

	raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	schemaCache.schemas[name] = s
	return s, nil
}

// decodeJSON extracts the JSON payload from a model reply, validates it against
// the named schema and unmarshals it into out.
func decodeJSON(raw, schemaName string, out any) error {
	payload, err := extractJSON(raw)
	if err != nil {
		return &DecodeError{Schema: schemaName, Stage: "extract", Raw: raw, Err: err}
	}

	var generic any
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		return &DecodeError{Schema: schemaName, Stage: "parse", Raw: raw, Err: err}
	}

	schema, err := loadSchema(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(generic))
	if err != nil {
		return &DecodeError{Schema: schemaName, Stage: "validate", Raw: raw, Err: err}
	}
	if !result.Valid() {
		fields := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fields = append(fields, field+": "+desc.Description())
		}
		return &DecodeError{
			Schema: schemaName,
			Stage:  "validate",
			Raw:    raw,
			Err:    fmt.Errorf("%d schema violations", len(fields)),
			Fields: fields,
		}
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &DecodeError{Schema: schemaName, Stage: "unmarshal", Raw: raw, Err: err}
	}
	return nil
}

// extractJSON strips markdown fences and returns the text between the first
// opening brace or bracket and the last matching closer.
func extractJSON(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.IndexAny(cleaned, "{[")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	closer := "}"
	if cleaned[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(cleaned, closer)
	if end < start {
		return "", fmt.Errorf("unterminated JSON in response")
	}

	return cleaned[start : end+1], nil
}

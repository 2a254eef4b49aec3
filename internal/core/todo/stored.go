package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrNoPayload is returned when there is nothing stored to restore.
	ErrNoPayload = errors.New("no stored payload")
	// ErrMalformedPayload is returned when the stored payload is not a JSON array.
	ErrMalformedPayload = errors.New("malformed stored payload")
	// ErrDuplicateID is reported for a stored record whose id was already seen.
	ErrDuplicateID = errors.New("duplicate id")
)

const itemSchemaURL = "todo://schemas/item.json"

// itemSchema is the shape every stored element must have. Extra properties
// are tolerated; dueDate must be absent or a string (null is rejected).
const itemSchema = `{
  "type": "object",
  "required": ["id", "title", "description", "priority"],
  "properties": {
    "id":          {"type": "string"},
    "title":       {"type": "string"},
    "description": {"type": "string"},
    "priority":    {"enum": ["low", "medium", "high"]},
    "dueDate":     {"type": "string"}
  }
}`

var compiledItemSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(itemSchemaURL, strings.NewReader(itemSchema)); err != nil {
		return nil, fmt.Errorf("add item schema: %w", err)
	}
	return compiler.Compile(itemSchemaURL)
})

// CheckStored validates one decoded JSON element against the item schema.
func CheckStored(element any) error {
	schema, err := compiledItemSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(element); err != nil {
		return flattenSchemaError(err)
	}
	return nil
}

// ParseStored decodes an untrusted stored payload. A payload that is not a
// JSON array fails as a whole; elements that do not match the item schema
// are dropped and reported to onDrop when it is non-nil, as are records
// repeating the id of an earlier one. A valid array with no surviving
// elements yields an empty, non-nil slice.
func ParseStored(payload []byte, onDrop func(index int, err error)) ([]Item, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, ErrNoPayload
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	elements, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s, not an array", ErrMalformedPayload, jsonKind(decoded))
	}

	drop := func(i int, err error) {
		if onDrop != nil {
			onDrop(i, err)
		}
	}

	items := make([]Item, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))
	for i, element := range elements {
		if err := CheckStored(element); err != nil {
			drop(i, err)
			continue
		}
		item := itemFromMap(element.(map[string]any))
		if _, dup := seen[item.ID]; dup {
			drop(i, fmt.Errorf("%w %q", ErrDuplicateID, item.ID))
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}

	return items, nil
}

// Marshal serializes items in the stored format.
func Marshal(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func itemFromMap(m map[string]any) Item {
	item := Item{
		ID:          m["id"].(string),
		Title:       m["title"].(string),
		Description: m["description"].(string),
		Priority:    Priority(m["priority"].(string)),
	}
	if due, ok := m["dueDate"].(string); ok {
		item.DueDate = due
	}
	return item
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case float64, json.Number:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}

// flattenSchemaError reduces a jsonschema validation tree to its leaf
// messages so logs stay on one line.
func flattenSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	return errors.New(strings.Join(msgs, "; "))
}

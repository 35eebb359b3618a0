package pipeline

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"armature/internal/domain"
	models "armature/internal/domain/models/pipeline"
)

//go:embed config/*.yaml
var kindFiles embed.FS

// Known job kinds. The set is closed: payload and result schemas are
// dispatched through a single validation entry point per direction, so
// adding a kind is a local change here plus one entry in config/kinds.yaml.
const (
	KindGltfConvert      = "gltf.convert"
	KindTexturePreflight = "texture.preflight"
)

// KindInfo is the descriptive metadata for one job kind, loaded from the
// embedded YAML registry file.
type KindInfo struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

type kindsFile struct {
	Kinds []KindInfo `yaml:"kinds"`
}

// KindRegistry knows the closed set of job kinds and validates submission
// payloads and completion results against each kind's schema.
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[string]KindInfo
	order []string
}

// NewKindRegistry creates a registry and loads the embedded YAML file.
func NewKindRegistry() (*KindRegistry, error) {
	data, err := kindFiles.ReadFile("config/kinds.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read kinds config: %w", err)
	}

	var file kindsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kinds config: %w", err)
	}

	r := &KindRegistry{kinds: make(map[string]KindInfo, len(file.Kinds))}
	for _, k := range file.Kinds {
		r.kinds[k.Name] = k
		r.order = append(r.order, k.Name)
	}
	return r, nil
}

// Known reports whether kind is in the registry.
func (r *KindRegistry) Known(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[kind]
	return ok
}

// Get returns the metadata for a kind.
func (r *KindRegistry) Get(kind string) (KindInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.kinds[kind]
	return info, ok
}

// List returns all kinds in registry file order.
func (r *KindRegistry) List() []KindInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]KindInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.kinds[name])
	}
	return out
}

// ValidatePayload checks a submission payload against the kind's schema.
// Unknown fields and wrong types are rejected.
func (r *KindRegistry) ValidatePayload(kind string, payload map[string]any) error {
	if !r.Known(kind) {
		return &domain.InvalidPayloadError{
			Message: fmt.Sprintf("unknown job kind %q", kind),
			Kind:    kind,
		}
	}
	if payload == nil {
		return nil
	}

	var err error
	switch kind {
	case KindGltfConvert:
		err = validation.Validate(payload, validation.Map(
			validation.Key("codecId", validation.By(beString)).Optional(),
			validation.Key("optimize", validation.By(beBool)).Optional(),
		))
	case KindTexturePreflight:
		err = validation.Validate(payload, validation.Map(
			validation.Key("textureIds", validation.By(beStringSlice)).Optional(),
			validation.Key("maxDimension", validation.By(bePositiveInt)).Optional(),
			validation.Key("allowNonPowerOfTwo", validation.By(beBool)).Optional(),
		))
	}
	if err != nil {
		return invalidPayload(kind, "payload", err)
	}
	return nil
}

// ValidateResult checks a completion result against the kind's result
// schema. The result's declared kind, when present, must match the job's.
func (r *KindRegistry) ValidateResult(kind string, result map[string]any) error {
	if result == nil {
		return &domain.InvalidPayloadError{
			Message: fmt.Sprintf("%s result: missing result", kind),
			Kind:    kind,
		}
	}

	if declared, ok := result["kind"]; ok {
		s, isString := declared.(string)
		if !isString || s != kind {
			return &domain.InvalidPayloadError{
				Message: fmt.Sprintf("%s result: kind %v does not match job kind", kind, declared),
				Kind:    kind,
				Field:   "kind",
			}
		}
	}

	var err error
	switch kind {
	case KindGltfConvert:
		err = validation.Validate(result, validation.Map(
			validation.Key("kind", validation.By(beString)).Optional(),
			validation.Key("status", validation.Required, validation.By(beString)),
			validation.Key("hierarchy", validation.By(beHierarchy)).Optional(),
			validation.Key("geometryDelta", validation.By(beGeometryDelta)).Optional(),
			validation.Key("hasGeometry", validation.By(beBool)).Optional(),
		))
	case KindTexturePreflight:
		err = validation.Validate(result, validation.Map(
			validation.Key("kind", validation.By(beString)).Optional(),
			validation.Key("status", validation.Required, validation.By(beString)),
			validation.Key("summary", validation.By(beTextureSummary)).Optional(),
		))
	default:
		return &domain.InvalidPayloadError{
			Message: fmt.Sprintf("unknown job kind %q", kind),
			Kind:    kind,
		}
	}
	if err != nil {
		return invalidPayload(kind, "result", err)
	}
	return nil
}

// invalidPayload folds an ozzo validation error into the domain taxonomy,
// naming the first offending field.
func invalidPayload(kind, direction string, err error) error {
	field := ""
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		keys := make([]string, 0, len(verrs))
		for k := range verrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			field = keys[0]
		}
	}
	return &domain.InvalidPayloadError{
		Message: fmt.Sprintf("%s %s: %v", kind, direction, err),
		Kind:    kind,
		Field:   field,
	}
}

// Type-check rules for the JSON-shaped maps used as payloads and results.
// Numbers may arrive as int, int64 or float64 depending on how the caller
// decoded them.

func beString(v any) error {
	if v == nil {
		return nil
	}
	if _, ok := v.(string); !ok {
		return errors.New("must be a string")
	}
	return nil
}

func beBool(v any) error {
	if v == nil {
		return nil
	}
	if _, ok := v.(bool); !ok {
		return errors.New("must be a boolean")
	}
	return nil
}

func beInt(v any) error {
	if v == nil {
		return nil
	}
	if _, ok := intValue(v); !ok {
		return errors.New("must be an integer")
	}
	return nil
}

func bePositiveInt(v any) error {
	if v == nil {
		return nil
	}
	n, ok := intValue(v)
	if !ok {
		return errors.New("must be an integer")
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func beStringSlice(v any) error {
	if v == nil {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return nil
	case []any:
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("element %d must be a string", i)
			}
		}
		return nil
	default:
		return errors.New("must be a list of strings")
	}
}

func beGeometryDelta(v any) error {
	if v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return errors.New("must be an object")
	}
	return validation.Validate(m, validation.Map(
		validation.Key("bones", validation.By(beInt)).Optional(),
		validation.Key("cubes", validation.By(beInt)).Optional(),
	))
}

func beTextureSummary(v any) error {
	if v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return errors.New("must be an object")
	}
	return validation.Validate(m, validation.Map(
		validation.Key("checked", validation.By(beInt)).Optional(),
		validation.Key("oversized", validation.By(beInt)).Optional(),
		validation.Key("nonPowerOfTwo", validation.By(beInt)).Optional(),
	))
}

func beHierarchy(v any) error {
	if v == nil {
		return nil
	}
	nodes, ok := v.([]any)
	if !ok {
		return errors.New("must be a list of nodes")
	}
	for i, node := range nodes {
		if err := validateHierarchyNode(node); err != nil {
			return fmt.Errorf("node %d: %v", i, err)
		}
	}
	return nil
}

func validateHierarchyNode(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return errors.New("must be an object")
	}
	kind, ok := m["kind"].(string)
	if !ok {
		return errors.New("kind must be a string")
	}
	if kind != string(models.NodeKindBone) && kind != string(models.NodeKindCube) {
		return fmt.Errorf("kind %q must be bone or cube", kind)
	}
	for key, val := range m {
		switch key {
		case "kind":
		case "id", "name":
			if err := beString(val); err != nil {
				return fmt.Errorf("%s: %v", key, err)
			}
		case "children":
			if val == nil {
				continue
			}
			children, ok := val.([]any)
			if !ok {
				return errors.New("children must be a list of nodes")
			}
			for i, child := range children {
				if err := validateHierarchyNode(child); err != nil {
					return fmt.Errorf("children[%d]: %v", i, err)
				}
			}
		default:
			return fmt.Errorf("unexpected field %q", key)
		}
	}
	return nil
}

// intValue extracts an integral value from the numeric types a JSON-shaped
// map may carry.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

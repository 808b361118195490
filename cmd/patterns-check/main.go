// Command patterns-check validates the search-pattern registry against the
// patterns JSON Schema and verifies the result still loads into the
// discovery scanner. CI runs it so a bad registry edit fails before release.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	docschema "seqreport/docs/schema"
	"seqreport/internal/discovery"
)

var exitFunc = os.Exit

const (
	schemaTypeObject = "object"
	schemaTypeArray  = "array"
	schemaTypeString = "string"
)

type jsonSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Items                *jsonSchema            `json:"items,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
	patternRE            *regexp.Regexp         `json:"-"`
}

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("patterns-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var patternsPath, schemaPath string
	fs.StringVar(&patternsPath, "patterns", "", "path to a pattern registry yaml (empty checks the embedded registry)")
	fs.StringVar(&schemaPath, "schema", "", "path to the patterns JSON Schema (empty uses the embedded copy)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(patternsPath, schemaPath); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Pattern registry validation failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Pattern registry validation passed."); writeErr != nil {
		return 1
	}
	return 0
}

// validatePath ensures a file argument stays within the repository tree and
// is not an absolute or path-traversing reference. This mitigates G304
// concerns around variable-based file inclusion.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") { // prevents traversal outside working dir
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

// run checks the registry in three passes: the JSON Schema governs shape,
// ParsePatterns enforces the semantic rules the schema cannot express
// (duplicate keys, glob validity) and scanner construction proves the
// production consumer accepts the result.
func run(patternsPath, schemaPath string) error {
	data, err := registryBytes(patternsPath)
	if err != nil {
		return err
	}

	schema, err := loadJSONSchema(schemaPath)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse registry: %w", err)
	}
	if err := validateValue(doc, schema, "$"); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	patterns, err := discovery.ParsePatterns(data)
	if err != nil {
		return err
	}
	if _, err := discovery.NewScanner(patterns, discovery.Options{}); err != nil {
		return fmt.Errorf("scanner rejects registry: %w", err)
	}
	return nil
}

// registryBytes reads the registry under test, defaulting to the copy
// compiled into the binary.
func registryBytes(path string) ([]byte, error) {
	if path == "" {
		return discovery.DefaultRegistryBytes(), nil
	}
	safePath, err := validatePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return data, nil
}

// schemaBytes reads the schema file, defaulting to the embedded copy.
func schemaBytes(path string) ([]byte, error) {
	if path == "" {
		return docschema.PatternsSchema(), nil
	}
	safePath, err := validatePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return data, nil
}

func loadJSONSchema(path string) (*jsonSchema, error) {
	data, err := schemaBytes(path)
	if err != nil {
		return nil, err
	}
	var schema jsonSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := validateSchema(&schema, "$"); err != nil {
		return nil, err
	}
	return &schema, nil
}

// validateSchema rejects schema documents outside the supported subset
// before any instance is checked against them.
func validateSchema(schema *jsonSchema, path string) error {
	if schema == nil {
		return fmt.Errorf("%s: schema is nil", path)
	}
	if schema.MinItems != nil && *schema.MinItems < 0 {
		return fmt.Errorf("%s: minItems must be >= 0", path)
	}
	if schema.MinLength != nil && *schema.MinLength < 0 {
		return fmt.Errorf("%s: minLength must be >= 0", path)
	}
	if len(schema.Enum) > 0 && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: enum only supported for string type", path)
	}
	if schema.Pattern != "" && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: pattern only supported for string type", path)
	}
	if schema.Pattern != "" && schema.patternRE == nil {
		compiled, err := regexp.Compile(schema.Pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", path, schema.Pattern, err)
		}
		schema.patternRE = compiled
	}
	if schema.MinLength != nil && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: minLength only supported for string type", path)
	}
	if schema.MinItems != nil && schema.Type != schemaTypeArray {
		return fmt.Errorf("%s: minItems only supported for array type", path)
	}
	switch schema.Type {
	case schemaTypeObject:
		if schema.Properties == nil {
			return fmt.Errorf("%s: object schema missing properties", path)
		}
		for _, req := range schema.Required {
			if _, ok := schema.Properties[req]; !ok {
				return fmt.Errorf("%s: required property %q not defined", path, req)
			}
		}
		for key, prop := range schema.Properties {
			if prop == nil {
				return fmt.Errorf("%s.%s: property schema is nil", path, key)
			}
			if err := validateSchema(prop, path+"."+key); err != nil {
				return err
			}
		}
	case schemaTypeArray:
		if schema.Items == nil {
			return fmt.Errorf("%s: array schema missing items", path)
		}
		if err := validateSchema(schema.Items, path+"[]"); err != nil {
			return err
		}
	case schemaTypeString:
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, schema.Type)
	}
	return nil
}

func validateValue(value any, schema *jsonSchema, path string) error {
	if schema == nil {
		return fmt.Errorf("%s: schema is nil", path)
	}
	switch schema.Type {
	case schemaTypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, req := range schema.Required {
			if _, ok := m[req]; !ok {
				return fmt.Errorf("%s: missing required property %q", path, req)
			}
		}
		for key, val := range m {
			propSchema, ok := schema.Properties[key]
			if !ok {
				if schema.AdditionalProperties != nil && !*schema.AdditionalProperties {
					return fmt.Errorf("%s: unknown property %q", path, key)
				}
				continue
			}
			if err := validateValue(val, propSchema, path+"."+key); err != nil {
				return err
			}
		}
	case schemaTypeArray:
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if schema.MinItems != nil && len(list) < *schema.MinItems {
			return fmt.Errorf("%s: expected at least %d items", path, *schema.MinItems)
		}
		for i, item := range list {
			if err := validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case schemaTypeString:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		if schema.MinLength != nil && len(str) < *schema.MinLength {
			return fmt.Errorf("%s: expected min length %d", path, *schema.MinLength)
		}
		if len(schema.Enum) > 0 && !stringInSlice(str, schema.Enum) {
			return fmt.Errorf("%s: value %q not in enum", path, str)
		}
		if schema.Pattern != "" {
			if schema.patternRE == nil {
				return fmt.Errorf("%s: pattern %q not compiled", path, schema.Pattern)
			}
			if !schema.patternRE.MatchString(str) {
				return fmt.Errorf("%s: value %q does not match pattern", path, str)
			}
		}
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, schema.Type)
	}
	return nil
}

func stringInSlice(value string, values []string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

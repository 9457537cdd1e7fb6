package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/fieldkeeper/internal/types"
)

// fieldsFile is the YAML document accepted by `fields import`, `evaluate`
// and `deps`.
type fieldsFile struct {
	Fields []types.Field `yaml:"fields"`
}

// loadFieldsFile reads field definitions from a YAML (or JSON) file.
// Fields without entity_type inherit defaultEntity.
func loadFieldsFile(path string, defaultEntity types.EntityType) ([]types.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields file: %w", err)
	}

	var doc fieldsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range doc.Fields {
		if doc.Fields[i].EntityType == "" {
			doc.Fields[i].EntityType = defaultEntity
		}
	}
	return doc.Fields, nil
}

// loadValuesFile reads a record's values from JSON (.json) or YAML.
func loadValuesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	values := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &values)
	} else {
		err = yaml.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

func writeJSON(cmd interface{ OutOrStdout() io.Writer }, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

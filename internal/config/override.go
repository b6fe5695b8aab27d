package config

import (
	"fmt"
	"reflect"
	"strings"
)

// ApplyOverrides applies --set key=value pairs to a loaded Config.
// Keys use dot notation for nested fields and map entries
// (e.g. "prompt.color", "drive_paths.d"). List fields take a
// comma-separated value. Returns an error for unknown keys or type
// mismatches.
func ApplyOverrides(cfg *Config, overrides []string) error {
	for _, ov := range overrides {
		key, value, ok := strings.Cut(ov, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid override %q: must be key=value", ov)
		}
		if err := setField(cfg, key, value); err != nil {
			return fmt.Errorf("override %q: %w", key, err)
		}
	}
	return cfg.Validate()
}

// setField sets a field on the Config struct by yaml tag path (dot-separated).
func setField(cfg *Config, key, value string) error {
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := findFieldByYAMLTag(v.Type(), part)
		if !ok {
			return fmt.Errorf("unknown field %q", key)
		}
		fv := v.FieldByIndex(field.Index)
		last := i == len(parts)-1

		if last {
			return setTypedValue(fv, value, key)
		}
		if fv.Kind() == reflect.Map {
			// A map entry is always the final segment.
			if i != len(parts)-2 {
				return fmt.Errorf("field %q: map entries have no nested fields", part)
			}
			return setMapEntry(fv, parts[i+1], value, key)
		}
		if fv.Kind() != reflect.Struct {
			return fmt.Errorf("field %q is not a struct, cannot access nested field", part)
		}
		v = fv
	}
	return nil
}

func setMapEntry(fv reflect.Value, entry, value, key string) error {
	if fv.Type().Key().Kind() != reflect.String || fv.Type().Elem().Kind() != reflect.String {
		return fmt.Errorf("field %q: unsupported map type %s", key, fv.Type())
	}
	if fv.IsNil() {
		fv.Set(reflect.MakeMap(fv.Type()))
	}
	if value == "" {
		fv.SetMapIndex(reflect.ValueOf(entry), reflect.Value{})
		return nil
	}
	fv.SetMapIndex(reflect.ValueOf(entry), reflect.ValueOf(value))
	return nil
}

// setTypedValue sets a reflect.Value from a string, with type coercion.
func setTypedValue(fv reflect.Value, value, key string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("field %q: expected bool (true/false), got %q", key, value)
		}
		fv.SetBool(b)
	case reflect.Ptr:
		if fv.Type().Elem().Kind() != reflect.Bool {
			return fmt.Errorf("field %q: unsupported pointer type %s", key, fv.Type())
		}
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("field %q: expected bool (true/false), got %q", key, value)
		}
		fv.Set(reflect.ValueOf(&b))
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("field %q: unsupported list type %s", key, fv.Type())
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("field %q: unsupported type %s", key, fv.Type())
	}
	return nil
}

// parseBool parses "true"/"false" and "on"/"off" (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "on":
		return true, nil
	case "false", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool: %q", s)
	}
}

// findFieldByYAMLTag finds a struct field by its yaml tag name.
func findFieldByYAMLTag(t reflect.Type, tag string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tagName, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if tagName != "" && tagName == tag {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

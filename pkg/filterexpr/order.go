package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// parseOrderBy accepts up to two comma-separated "key [asc|desc]"
// segments against the schema whitelist, filling unspecified slots from
// the schema defaults so ordering stays deterministic.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if schema.DefaultPrimary == "" || schema.FallbackKey == "" {
		return orderParams{}, errors.New("order schema requires default primary and fallback keys")
	}
	if _, ok := schema.Fields[schema.DefaultPrimary]; !ok {
		return orderParams{}, fmt.Errorf("order key %q missing from schema fields", schema.DefaultPrimary)
	}
	if _, ok := schema.Fields[schema.FallbackKey]; !ok {
		return orderParams{}, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
	}

	ord := orderParams{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := parts[0]
		if _, ok := schema.Fields[key]; !ok {
			return orderParams{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}

		var desc bool
		switch {
		case len(parts) == 1:
		case len(parts) == 2 && strings.EqualFold(parts[1], "asc"):
		case len(parts) == 2 && strings.EqualFold(parts[1], "desc"):
			desc = true
		default:
			return orderParams{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}

		if _, dup := seen[key]; dup {
			return orderParams{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey = key
			ord.PrimaryDesc = desc
		case 1:
			ord.SecondaryKey = key
			ord.SecondaryDesc = desc
		default:
			return orderParams{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	if ord.SecondaryKey == ord.PrimaryKey {
		ord.SecondaryKey, ord.SecondaryDesc = schema.FallbackKey, schema.FallbackDesc
		if ord.SecondaryKey == ord.PrimaryKey {
			for key := range schema.Fields {
				if key != ord.PrimaryKey {
					ord.SecondaryKey, ord.SecondaryDesc = key, false
					break
				}
			}
		}
		if ord.SecondaryKey == ord.PrimaryKey {
			return orderParams{}, errors.New("order schema requires at least two distinct keys for stable ordering")
		}
	}

	return ord, nil
}

func setOrderParams(binding any, ord orderParams) error {
	target, err := structTarget(binding)
	if err != nil {
		return err
	}

	assignments := []struct {
		name  string
		value reflect.Value
	}{
		{"PrimaryKey", reflect.ValueOf(ord.PrimaryKey)},
		{"PrimaryDesc", reflect.ValueOf(ord.PrimaryDesc)},
		{"SecondaryKey", reflect.ValueOf(ord.SecondaryKey)},
		{"SecondaryDesc", reflect.ValueOf(ord.SecondaryDesc)},
	}
	for _, a := range assignments {
		field := target.FieldByName(a.name)
		if !field.IsValid() {
			return fmt.Errorf("params struct %s has no field named %q", target.Type(), a.name)
		}
		if !field.CanSet() {
			return fmt.Errorf("cannot set field %q on params struct", a.name)
		}
		if !a.value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", a.name, field.Type(), a.value.Type())
		}
		field.Set(a.value.Convert(field.Type()))
	}
	return nil
}

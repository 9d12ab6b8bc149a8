package parser

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// JSON parses the raw value as a JSON document into a T.
//
//	cfg := envvar.New[Limits]("APP_LIMITS", parser.JSON[Limits])
func JSON[T any](raw string) (T, error) {
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, errors.Wrap(err, "parsing JSON document")
	}
	return value, nil
}

// YAML parses the raw value as a YAML document into a T.
func YAML[T any](raw string) (T, error) {
	var value T
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return value, errors.Wrap(err, "parsing YAML document")
	}
	return value, nil
}

// TOML parses the raw value as a TOML document into a T.
func TOML[T any](raw string) (T, error) {
	var value T
	if err := toml.Unmarshal([]byte(raw), &value); err != nil {
		return value, errors.Wrap(err, "parsing TOML document")
	}
	return value, nil
}

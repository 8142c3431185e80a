package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve returns a [kong.ConfigurationLoader] reading flag defaults from
// the mapping stored under key name in a YAML document:
//
//	config:
//	  log-level: debug
//	  policy: root
//	  define:
//	    - greet="hello " + user.name
//
// Flag names may be written with hyphens or underscores. Command-line flags
// override configured values. A document that cannot be decoded, or has no
// mapping under name, configures nothing.
func resolve(name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return config{}, nil //nolint:nilerr
		}

		section, ok := doc[name].(map[string]any)
		if !ok {
			return config{}, nil
		}

		out := make(config, len(section))

		for key, value := range section {
			out[strings.ReplaceAll(key, "_", "-")] = flagText(value)
		}

		return out, nil
	}
}

// config implements [kong.Resolver] over a decoded configuration section.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}

// flagText converts decoded YAML scalars to the forms kong's mappers accept.
// Numbers become text; sequences are converted element-wise.
func flagText(value any) any {
	switch v := value.(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagText(e)
		}

		return out
	}

	return value
}

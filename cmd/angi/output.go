package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/jmespath-community/go-jmespath"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"json", "yaml", "text"}

// formatOutput renders a plain Go value. With no format the value is
// printed as JSON.
func formatOutput(value any, format string, colorize bool) (string, error) {
	switch strings.ToLower(format) {
	case "", "json":
		if value == nil && format == "" {
			return "", nil
		}
		var data []byte
		var err error
		if colorize {
			data, err = prettyjson.Marshal(value)
		} else {
			data, err = json.MarshalIndent(value, "", "  ")
		}
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "yaml":
		data, err := yaml.Marshal(value)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case "text":
		return fmt.Sprintf("%v", value), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// search applies a JMESPath expression. Numbers are normalized through JSON
// first so that comparisons see float64 values.
func search(query string, value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return jmespath.Search(query, normalized)
}

func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isTerminal(f)
}

package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ArgumentGetter is an interface for getting arguments from a request.
type ArgumentGetter interface {
	GetArguments() map[string]any
}

// scanArgs are the bb_scan parameters.
type scanArgs struct {
	Path      string   `json:"path"`
	Strict    bool     `json:"strict"`
	Ignore    []string `json:"ignore"`
	SourceMax int      `json:"source_max"`
	TestMax   int      `json:"test_max"`
}

// splitPlanArgs are the bb_split_plan parameters.
type splitPlanArgs struct {
	File           string `json:"file"`
	Output         string `json:"output"`
	IncludeContent *bool  `json:"include_content"`
}

type lawsArgs struct {
	Path string `json:"path"`
}

// bindArguments decodes request arguments into target. Clients that send
// every parameter as a string (JSON-encoded arrays, "true", "600") are
// coerced to the field types.
func bindArguments[T any](request ArgumentGetter, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(request.GetArguments()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// jsonStringHook parses string values that hold JSON for slice, bool and
// numeric fields.
func jsonStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	switch {
	case to.Kind() == reflect.Slice && strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]"):
		slicePtr := reflect.New(to)
		if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
			return slicePtr.Elem().Interface(), nil
		}
	case to.Kind() == reflect.Bool && (raw == "true" || raw == "false"):
		return raw == "true", nil
	case to.Kind() >= reflect.Int && to.Kind() <= reflect.Float64:
		var n json.Number
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			return n, nil
		}
	}
	return data, nil
}

// requireString fails when a required string parameter is missing or blank.
func requireString(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s parameter is required", key)
	}
	return nil
}

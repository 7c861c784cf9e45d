package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseJSON extracts the JSON payload from raw output into out,
// tolerating markdown fences and surrounding prose.
func ParseJSON(raw string, out any) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return errors.New("missing JSON payload")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse JSON output: %w", err)
	}
	return nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
		if strings.HasPrefix(s, "json") {
			s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = strings.TrimSpace(s[:idx])
		}
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}

	start, closer := strings.Index(s, "{"), "}"
	if arr := strings.Index(s, "["); arr >= 0 && (start < 0 || arr < start) {
		start, closer = arr, "]"
	}
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// decodeStructured fills resp from raw JSON text according to the
// schema shape: array schemas produce Items, object schemas produce
// StructuredData.
func decodeStructured(raw string, schema map[string]any, resp *Response) error {
	if schemaIsArray(schema) {
		var items []map[string]any
		if err := ParseJSON(raw, &items); err != nil {
			return err
		}
		resp.Items = items
		return nil
	}
	var data map[string]any
	if err := ParseJSON(raw, &data); err != nil {
		return err
	}
	resp.StructuredData = data
	return nil
}

func schemaIsArray(schema map[string]any) bool {
	t, _ := schema["type"].(string)
	return t == "array"
}

// systemText builds the system prompt from the request context,
// appending the brevity instruction for brief requests.
func systemText(req *ChatRequest) string {
	s := strings.TrimSpace(req.Context)
	if req.Brief {
		if s != "" {
			s += "\n"
		}
		s += "Answer as briefly as possible, with no explanation."
	}
	return s
}

// schemaInstruction renders a schema as a prompt suffix for providers
// without native structured output.
func schemaInstruction(schema map[string]any) string {
	b, err := json.Marshal(schema)
	if err != nil {
		return ""
	}
	return "Respond with JSON only, no prose, matching this JSON schema exactly:\n" + string(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

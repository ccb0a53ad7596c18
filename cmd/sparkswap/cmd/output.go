package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var jsonFormat = protojson.MarshalOptions{Multiline: true, Indent: "  "}

// printResponse writes res as JSON with --json, otherwise as a titled
// key/value listing.
func printResponse(w io.Writer, title string, res *structpb.Struct) error {
	if jsonOutput {
		out, err := jsonFormat.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	fmt.Fprintln(w, TitleStyle.Render(title))
	fmt.Fprint(w, renderStruct(res))
	return nil
}

// renderStruct lists the top-level fields sorted by key. Nested values are
// printed as compact JSON.
func renderStruct(s *structpb.Struct) string {
	fields := s.GetFields()
	if len(fields) == 0 {
		return MutedStyle.Render("  (empty)") + "\n"
	}

	keys := make([]string, 0, len(fields))
	width := 0
	for k := range fields {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		label := fmt.Sprintf("  %-*s", width, k)
		fmt.Fprintf(&b, "%s  %s\n", KeyStyle.Render(label), ValueStyle.Render(formatValue(fields[k])))
	}
	return b.String()
}

func formatValue(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return fmt.Sprint(k.BoolValue)
	case *structpb.Value_NumberValue:
		return fmt.Sprint(k.NumberValue)
	case *structpb.Value_NullValue, nil:
		return "-"
	default:
		out, err := json.Marshal(v.AsInterface())
		if err != nil {
			return fmt.Sprint(v.AsInterface())
		}
		return string(out)
	}
}

// parseRequest decodes a JSON object into a request struct. An empty
// string yields an empty request.
func parseRequest(raw string) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if strings.TrimSpace(raw) == "" {
		return req, nil
	}
	if err := protojson.Unmarshal([]byte(raw), req); err != nil {
		return nil, fmt.Errorf("request must be a JSON object: %w", err)
	}
	return req, nil
}

package tools

// parameterAliases maps a canonical parameter name to the names small
// models commonly use instead, in preference order.
var parameterAliases = map[string][]string{
	"expression":  {"expr", "input", "formula", "equation", "math", "calculation"},
	"query":       {"q", "input", "search", "search_query", "question", "term", "sql", "keywords"},
	"code":        {"source", "input", "script", "program", "source_code"},
	"path":        {"file", "filename", "file_path", "filepath", "source", "dir", "directory"},
	"content":     {"text", "data", "body", "contents"},
	"image_path":  {"image", "path", "file", "img", "image_url"},
	"prompt":      {"question", "instruction"},
	"num_results": {"limit", "count", "max_results", "n"},
	"limit":       {"num_results", "count", "max_results", "n", "top_k"},
}

// Normalize maps aliased parameter names onto the definition's canonical
// names. An alias is used only when the canonical name is absent and the
// alias is not itself declared by the tool. When the tool has exactly one
// required parameter and the call carries exactly one undeclared entry of
// the right kind, that entry is renamed to the required parameter.
func Normalize(def ToolDefinition, params Params) Params {
	out := params.Clone()
	for _, p := range def.Parameters {
		if _, present := out[p.Name]; present {
			continue
		}
		for _, alias := range parameterAliases[p.Name] {
			if _, declared := def.Parameter(alias); declared {
				continue
			}
			value, present := out[alias]
			if !present {
				continue
			}
			delete(out, alias)
			out[p.Name] = value
			break
		}
	}

	required := def.Required()
	if len(required) != 1 || len(out) != 1 {
		return out
	}
	target := required[0]
	for key, value := range out {
		if _, declared := def.Parameter(key); declared {
			continue
		}
		if value.Kind() == target.Kind {
			delete(out, key)
			out[target.Name] = value
		}
	}
	return out
}

package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// Catalog is an immutable, ordered table of tool definitions.
type Catalog struct {
	defs  []ToolDefinition
	index map[string]int
}

// NewCatalog builds a catalog, rejecting empty or duplicate names.
func NewCatalog(defs ...ToolDefinition) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for _, def := range defs {
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("tool definition has empty name")
		}
		if _, exists := c.index[def.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
		}
		if def.HandlerKey == "" {
			def.HandlerKey = def.Name
		}
		c.index[def.Name] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// DefaultCatalog returns the built-in tools.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtinDefinitions()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the definition for name.
func (c *Catalog) Lookup(name string) (ToolDefinition, bool) {
	i, ok := c.index[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return c.defs[i], true
}

// List returns all definitions in catalog order.
func (c *Catalog) List() []ToolDefinition {
	out := make([]ToolDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Names returns tool names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		names = append(names, def.Name)
	}
	return names
}

// extend returns a new catalog with def appended; c is left untouched.
func (c *Catalog) extend(def ToolDefinition) (*Catalog, error) {
	defs := append(c.List(), def)
	return NewCatalog(defs...)
}

// PromptSummary renders the catalog for the model's instructions.
// It is never parsed back.
func (c *Catalog) PromptSummary() string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, def := range c.defs {
		parts := make([]string, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			entry := p.Name + ":" + p.Kind.String()
			if p.Required {
				entry += "*"
			}
			parts = append(parts, entry)
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", def.Name, strings.Join(parts, ", "), def.Description)
	}
	b.WriteString("(* = required)\n\n")
	b.WriteString(routingHeuristics)
	b.WriteString("\nTo call a tool, reply with one fenced JSON block per call:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"tool": "web_search", "parameters": {"query": "latest Go release"}}`)
	b.WriteString("\n```\n")
	return b.String()
}

const routingHeuristics = `Routing:
- Any arithmetic, even simple: calculate. Do not compute in your head.
- Current events, prices, or facts you are unsure of: web_search.
- Data processing, plotting, or multi-step logic: run_python.
- Questions about the user's uploaded documents: search_documents, then read_file.
- Tables in the session database: execute_sql.
- Answer directly when no tool is needed.
`

// JSONSchema renders the parameter list as a JSON Schema object.
func (d ToolDefinition) JSONSchema() *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(d.Parameters))
	var required []string
	for _, p := range d.Parameters {
		schema := &jsonschema.Schema{
			Type:        p.Kind.String(),
			Description: p.Description,
		}
		if p.Kind == KindArray {
			schema.Items = &jsonschema.Schema{}
		}
		for _, allowed := range p.AllowedValues {
			schema.Enum = append(schema.Enum, allowed)
		}
		properties[p.Name] = schema
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

// OpenAITools converts the catalog to OpenAI function tool definitions.
func (c *Catalog) OpenAITools() []openai.ChatCompletionToolUnionParam {
	defs := make([]openai.ChatCompletionToolUnionParam, 0, len(c.defs))
	for _, def := range c.defs {
		defs = append(defs, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        def.Name,
					Description: param.NewOpt(def.Description),
					Parameters:  schemaMap(def.JSONSchema()),
				},
			},
		})
	}
	return defs
}

func schemaMap(schema *jsonschema.Schema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}

func builtinDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "web_search",
			Description: "Search the web and return titles, URLs, and snippets.",
			Parameters: []ToolParameter{
				{Name: "query", Kind: KindString, Required: true, Description: "Search query"},
				{Name: "num_results", Kind: KindNumber, Description: "Number of results, 1-10 (default 5)"},
			},
		},
		{
			Name:        "calculate",
			Description: "Evaluate an arithmetic expression. Supports + - * / % ** and math functions like sqrt, log, sin.",
			Parameters: []ToolParameter{
				{Name: "expression", Kind: KindString, Required: true, Description: "Expression such as 2 + 3 * 4 or sqrt(16)"},
			},
		},
		{
			Name:        "run_python",
			Description: "Execute Python code and return its printed output.",
			Parameters: []ToolParameter{
				{Name: "code", Kind: KindString, Required: true, Description: "Python source"},
			},
		},
		{
			Name:        "run_javascript",
			Description: "Execute JavaScript code and return its console output.",
			Parameters: []ToolParameter{
				{Name: "code", Kind: KindString, Required: true, Description: "JavaScript source"},
			},
		},
		{
			Name:        "execute_sql",
			Description: "Run a SQL statement against the session database.",
			Parameters: []ToolParameter{
				{Name: "query", Kind: KindString, Required: true, Description: "SQL statement"},
			},
		},
		{
			Name:        "read_file",
			Description: "Read a file from the workspace.",
			Parameters: []ToolParameter{
				{Name: "path", Kind: KindString, Required: true, Description: "Workspace-relative path"},
				{Name: "encoding", Kind: KindString, Description: "Output encoding", AllowedValues: []string{"utf-8", "base64"}},
			},
		},
		{
			Name:        "write_file",
			Description: "Write text content to a file in the workspace, replacing it.",
			Parameters: []ToolParameter{
				{Name: "path", Kind: KindString, Required: true, Description: "Workspace-relative path"},
				{Name: "content", Kind: KindString, Required: true, Description: "File content"},
			},
		},
		{
			Name:        "list_files",
			Description: "List entries of a workspace directory.",
			Parameters: []ToolParameter{
				{Name: "path", Kind: KindString, Description: "Directory (default: workspace root)"},
			},
		},
		{
			Name:        "search_documents",
			Description: "Search the user's documents for relevant passages.",
			Parameters: []ToolParameter{
				{Name: "query", Kind: KindString, Required: true, Description: "What to look for"},
				{Name: "limit", Kind: KindNumber, Description: "Maximum passages, 1-20 (default 5)"},
			},
		},
		{
			Name:        "analyze_image",
			Description: "Describe or answer a question about an image in the workspace.",
			Parameters: []ToolParameter{
				{Name: "image_path", Kind: KindString, Required: true, Description: "Workspace-relative image path"},
				{Name: "prompt", Kind: KindString, Description: "Question about the image"},
			},
		},
	}
}

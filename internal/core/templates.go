package core

// PromptTemplate is a named mode controlling the instruction sent with a
// question.
type PromptTemplate struct {
	ID          string
	Name        string
	Title       string
	Description string
	Placeholder string
	APIValue    string
}

const PromptTextToSQL = "text_to_sql"

var PromptTemplates = []PromptTemplate{
	{
		ID:          "generate",
		Name:        "Generate SQL",
		Title:       "Ask your question",
		Description: "Generate a SQL query from a natural-language question.",
		Placeholder: "Example: Which products sell the most?",
		APIValue:    PromptTextToSQL,
	},
	{
		ID:          "optimize",
		Name:        "Optimize query",
		Title:       "Optimize a SQL query",
		Description: "Rewrite an existing SQL query for better performance.",
		Placeholder: "Example: SELECT * FROM products p JOIN categories c ON p.category_id = c.id WHERE p.price > 100;",
		APIValue:    "optimize_sql",
	},
	{
		ID:          "explain",
		Name:        "Explain query",
		Title:       "Get a detailed explanation of your query",
		Description: "Explain step by step how a SQL query works.",
		Placeholder: "Example: SELECT name, COUNT(*) AS total FROM sales GROUP BY name HAVING COUNT(*) > 5;",
		APIValue:    "explain_sql",
	},
	{
		ID:          "fix",
		Name:        "Fix query",
		Title:       "Fix a SQL query",
		Description: "Correct the errors in an existing SQL query.",
		Placeholder: "Example: SELECT name, price FROM products WERE price > 100 ORDERY BY price;",
		APIValue:    "fix_sql",
	},
}

// templateAliases maps ids used by older links to their template.
var templateAliases = map[string]string{
	"correct": "fix",
}

// TemplateByID returns the template with the given id, or the SQL
// generation template when the id is unknown.
func TemplateByID(id string) PromptTemplate {
	if t, ok := LookupTemplate(id); ok {
		return t
	}
	return PromptTemplates[0]
}

// LookupTemplate reports whether id names a known template or alias.
func LookupTemplate(id string) (PromptTemplate, bool) {
	if alias, ok := templateAliases[id]; ok {
		id = alias
	}
	for _, t := range PromptTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return PromptTemplate{}, false
}

// SchemaExtractionScript is shown to users registering a schema-provided
// database; its output is what they paste back.
const SchemaExtractionScript = `SELECT json_agg(
  json_build_object(
    'schema_name', table_schema,
    'table_name', table_name,
    'column_name', column_name,
    'column_type', data_type
  )
)
FROM information_schema.columns
WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'pg_toast');`

// Package main implements the fntimer documentation generator.
// It reads type definitions and comments from pkg/config, and the flag
// declarations of the fntimer command, and renders them into the README
// template.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// FieldDoc describes a JSON field in the configuration.
type FieldDoc struct {
	Name        string // JSON field name
	GoName      string // Go field name
	Type        string // Go type
	JSONType    string // JSON type for display
	Default     string // Default value, if any
	Description string // Description from doc comment (cleaned)
	Nested      string // Name of nested type, if applicable
}

// TypeDoc describes a configuration type.
type TypeDoc struct {
	Name        string     // Type name (e.g., "Config", "PrometheusConfig")
	DisplayName string     // Display name for docs (may differ from Name)
	Description string     // Type description from doc comment
	Fields      []FieldDoc // Fields in the type
}

// ConfigDocs holds all extracted documentation.
type ConfigDocs struct {
	Types []TypeDoc
}

// FieldNameMap maps Go field names to their JSON names and containing type.
type FieldNameMap map[string]FieldNameInfo

type FieldNameInfo struct {
	JSONName string
	TypeName string // The type containing this field
}

// TemplateData holds all data passed to the README template.
type TemplateData struct {
	Flags  []FlagDoc
	Config ConfigDocs
}

// FlagDoc describes a CLI flag.
type FlagDoc struct {
	Name        string
	Type        string
	Default     string
	Description string
}

var (
	inputFile  = flag.String("in", "README.in.md", "input template file")
	outputFile = flag.String("out", "README.md", "output file")
	configPkg  = flag.String("config-pkg", "pkg/config", "path to config package")
	cmdFile    = flag.String("cmd", "cmd/fntimer/main.go", "file declaring the command-line flags")
)

func main() {
	flag.Parse()

	// Parse the config package
	docs, err := parseConfigPackage(*configPkg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config package: %v\n", err)
		os.Exit(1)
	}

	flags, err := parseCLIFlags(*cmdFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	// Read template
	tmplContent, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading template: %v\n", err)
		os.Exit(1)
	}

	out, err := render(string(tmplContent), TemplateData{Flags: flags, Config: docs})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering template: %v\n", err)
		os.Exit(1)
	}

	// Write output
	if err := os.WriteFile(*outputFile, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s from %s\n", *outputFile, *inputFile)
}

func render(tmplContent string, data TemplateData) ([]byte, error) {
	tmpl, err := template.New("readme").Funcs(templateFuncs()).Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"typeAnchor": func(name string) string {
			return strings.ToLower(name)
		},
		"oneline": func(s string) string {
			// Replace newlines with spaces and collapse multiple spaces
			s = strings.ReplaceAll(s, "\n", " ")
			return strings.Join(strings.Fields(s), " ")
		},
	}
}

// parseCLIFlags finds flag.String, flag.BoolVar and similar calls in path
// and returns the flags they declare, sorted by name like flag.VisitAll.
func parseCLIFlags(path string) ([]FlagDoc, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var flags []FlagDoc
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if pkg, ok := sel.X.(*ast.Ident); !ok || pkg.Name != "flag" {
			return true
		}

		kind := sel.Sel.Name
		args := call.Args
		if strings.HasSuffix(kind, "Var") {
			kind = strings.TrimSuffix(kind, "Var")
			if len(args) > 0 {
				args = args[1:]
			}
		}
		switch kind {
		case "String", "Bool", "Int", "Int64", "Uint", "Float64", "Duration":
		default:
			return true
		}
		if len(args) != 3 {
			return true
		}

		name, ok := stringLit(args[0])
		if !ok {
			return true
		}
		usage, _ := stringLit(args[2])

		flags = append(flags, FlagDoc{
			Name:        name,
			Type:        strings.ToLower(kind),
			Default:     defaultLiteral(args[1]),
			Description: usage,
		})
		return true
	})

	sort.Slice(flags, func(i, j int) bool {
		return flags[i].Name < flags[j].Name
	})
	return flags, nil
}

func stringLit(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// defaultLiteral renders a flag's default for display. Zero values render
// as the empty string.
func defaultLiteral(expr ast.Expr) string {
	if s, ok := stringLit(expr); ok {
		return s
	}
	s := types.ExprString(expr)
	switch s {
	case "0", "false":
		return ""
	}
	return s
}

func parseConfigPackage(pkgPath string) (ConfigDocs, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, pkgPath, func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		return ConfigDocs{}, fmt.Errorf("parsing package: %w", err)
	}

	var docs ConfigDocs

	for _, pkg := range pkgs {
		// Use go/doc to extract documentation
		docPkg := doc.New(pkg, pkgPath, doc.AllDecls)

		for _, t := range docPkg.Types {
			typeDoc := extractTypeDoc(t)
			if typeDoc != nil {
				docs.Types = append(docs.Types, *typeDoc)
			}
		}
	}

	known := make(map[string]bool, len(docs.Types))
	for _, t := range docs.Types {
		known[t.Name] = true
	}
	for i := range docs.Types {
		for j := range docs.Types[i].Fields {
			f := &docs.Types[i].Fields[j]
			f.Nested = nestedType(f.Type, known)
			f.JSONType = goTypeToJSONType(f.Type, docs.Types)
		}
	}

	// Sort types in depth-first pre-order based on field references
	// Start with Config, then follow nested type references
	docs.Types = sortTypesDepthFirst(docs.Types)

	// Build field name map and fix references in descriptions
	fieldMap := buildFieldNameMap(docs.Types)
	for i := range docs.Types {
		docs.Types[i].Description = replaceFieldReferences(docs.Types[i].Description, fieldMap)
		for j := range docs.Types[i].Fields {
			docs.Types[i].Fields[j].Description = replaceFieldReferences(docs.Types[i].Fields[j].Description, fieldMap)
		}
	}

	return docs, nil
}

// buildFieldNameMap creates a mapping from Go field names to JSON field names.
func buildFieldNameMap(types []TypeDoc) FieldNameMap {
	m := make(FieldNameMap)
	for _, t := range types {
		for _, f := range t.Fields {
			if f.GoName != "" && f.Name != "" {
				m[f.GoName] = FieldNameInfo{
					JSONName: f.Name,
					TypeName: t.Name,
				}
			}
		}
	}
	return m
}

// replaceFieldReferences replaces Go field names with JSON field names in descriptions.
// It also wraps them in backticks for code formatting.
// Only replaces PascalCase compound names to avoid false positives with common words.
func replaceFieldReferences(desc string, fieldMap FieldNameMap) string {
	if desc == "" {
		return desc
	}

	// Sort field names by length (longest first) to avoid partial replacements
	var goNames []string
	for name := range fieldMap {
		if isPascalCaseCompound(name) {
			goNames = append(goNames, name)
		}
	}
	sort.Slice(goNames, func(i, j int) bool {
		if len(goNames[i]) != len(goNames[j]) {
			return len(goNames[i]) > len(goNames[j])
		}
		return goNames[i] < goNames[j]
	})

	for _, goName := range goNames {
		info := fieldMap[goName]
		// Match the Go name as a whole word (not part of another word)
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(goName) + `\b`)
		replacement := "`" + info.JSONName + "`"
		desc = pattern.ReplaceAllString(desc, replacement)
	}

	return desc
}

// isPascalCaseCompound returns true if the name is a PascalCase compound word
// (has transitions from lowercase to uppercase like "TargetDuration" or "ExtraLabels")
func isPascalCaseCompound(name string) bool {
	if len(name) < 2 {
		return false
	}
	for i := 0; i < len(name)-1; i++ {
		if name[i] >= 'a' && name[i] <= 'z' && name[i+1] >= 'A' && name[i+1] <= 'Z' {
			return true
		}
	}
	return false
}

// nestedType returns the documented type a field refers to, if any.
func nestedType(goType string, known map[string]bool) string {
	name := strings.TrimLeft(goType, "*[]")
	if i := strings.LastIndex(name, "]"); strings.HasPrefix(name, "map[") && i != -1 {
		name = strings.TrimLeft(name[i+1:], "*")
	}
	if known[name] {
		return name
	}
	return ""
}

// sortTypesDepthFirst sorts types in depth-first pre-order based on field references.
// Starting from Config, when we encounter a field that references another type,
// we output that type immediately after before continuing with other fields.
func sortTypesDepthFirst(types []TypeDoc) []TypeDoc {
	typeMap := make(map[string]*TypeDoc)
	for i := range types {
		typeMap[types[i].Name] = &types[i]
	}

	var result []TypeDoc
	visited := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		t, ok := typeMap[name]
		if !ok {
			return
		}
		visited[name] = true
		result = append(result, *t)

		for _, field := range t.Fields {
			if field.Nested != "" {
				visit(field.Nested)
			}
		}
	}

	visit("Config")

	// Add any remaining types that weren't reachable from Config
	for _, t := range types {
		if !visited[t.Name] {
			result = append(result, t)
		}
	}

	return result
}

func extractTypeDoc(t *doc.Type) *TypeDoc {
	// Only process struct types
	if t.Decl.Tok != token.TYPE {
		return nil
	}

	for _, spec := range t.Decl.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			continue
		}

		// Skip types without JSON fields
		hasJSONFields := false
		for _, field := range st.Fields.List {
			if field.Tag != nil && strings.Contains(field.Tag.Value, `json:`) {
				hasJSONFields = true
				break
			}
		}
		if !hasJSONFields {
			continue
		}

		// Extract display name and description from doc comment
		docText := strings.TrimSpace(t.Doc)
		displayName := ts.Name.Name
		description := docText

		// Check for @docname annotation
		if idx := strings.Index(docText, "@docname "); idx != -1 {
			rest := docText[idx+len("@docname "):]
			if endIdx := strings.IndexAny(rest, " \n\t"); endIdx != -1 {
				displayName = rest[:endIdx]
				description = strings.TrimSpace(docText[:idx] + rest[endIdx:])
			} else {
				displayName = rest
				description = strings.TrimSpace(docText[:idx])
			}
		}

		typeDoc := &TypeDoc{
			Name:        ts.Name.Name,
			DisplayName: displayName,
			Description: cleanTypeDescription(ts.Name.Name, description),
		}

		for _, field := range st.Fields.List {
			fieldDoc := extractFieldDoc(field)
			if fieldDoc != nil {
				typeDoc.Fields = append(typeDoc.Fields, *fieldDoc)
			}
		}

		if len(typeDoc.Fields) > 0 {
			return typeDoc
		}
	}

	return nil
}

// cleanTypeDescription removes redundant "TypeName ..." prefix from type descriptions.
func cleanTypeDescription(typeName, desc string) string {
	prefixes := []string{
		typeName + " holds ",
		typeName + " configures ",
		typeName + " represents ",
		typeName + " is ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(desc, prefix) {
			desc = strings.TrimPrefix(desc, prefix)
			if len(desc) > 0 {
				desc = strings.ToUpper(desc[:1]) + desc[1:]
			}
			break
		}
	}
	return desc
}

func extractFieldDoc(field *ast.Field) *FieldDoc {
	if field.Tag == nil {
		return nil
	}

	tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
	jsonTag := tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return nil
	}

	jsonName, _, _ := strings.Cut(jsonTag, ",")
	if jsonName == "" {
		return nil
	}

	goName := ""
	if len(field.Names) > 0 {
		goName = field.Names[0].Name
	}

	goType := formatType(field.Type)

	docComment := ""
	if field.Doc != nil {
		docComment = strings.TrimSpace(field.Doc.Text())
	} else if field.Comment != nil {
		docComment = strings.TrimSpace(field.Comment.Text())
	}

	docComment = cleanFieldDescription(goName, docComment)

	// The default is shown in its own column
	defaultVal, raw := extractDefault(docComment)
	if raw != "" {
		docComment = removeDefaultFromDescription(docComment, raw)
	}

	return &FieldDoc{
		Name:        jsonName,
		GoName:      goName,
		Type:        goType,
		Default:     defaultVal,
		Description: docComment,
	}
}

// cleanFieldDescription removes redundant "FieldName is/are" prefix from field descriptions.
func cleanFieldDescription(fieldName, desc string) string {
	if desc == "" {
		return ""
	}

	prefixes := []string{
		fieldName + " is ",
		fieldName + " are ",
		fieldName + " configures ",
		fieldName + " enables ",
		fieldName + " adds ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(desc, prefix) {
			desc = strings.TrimPrefix(desc, prefix)
			if len(desc) > 0 {
				desc = strings.ToUpper(desc[:1]) + desc[1:]
			}
			break
		}
	}
	return desc
}

func goTypeToJSONType(goType string, docs []TypeDoc) string {
	switch goType {
	case "string", "*string":
		return "string"
	case "Duration":
		return "duration"
	case "int", "*int", "int64", "*int64":
		return "integer"
	case "float64", "*float64":
		return "number"
	case "bool", "*bool":
		return "boolean"
	case "map[string]string":
		return "map[string]string"
	}
	if strings.HasPrefix(goType, "[]") {
		return "[]" + goTypeToJSONType(strings.TrimPrefix(goType, "[]"), docs)
	}
	name := strings.TrimPrefix(goType, "*")
	for _, t := range docs {
		if t.Name == name {
			return fmt.Sprintf("[%s](#%s)", t.DisplayName, strings.ToLower(t.DisplayName))
		}
	}
	return goType
}

func formatType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + formatType(t.X)
	case *ast.ArrayType:
		return "[]" + formatType(t.Elt)
	case *ast.MapType:
		return "map[" + formatType(t.Key) + "]" + formatType(t.Value)
	case *ast.SelectorExpr:
		return formatType(t.X) + "." + t.Sel.Name
	default:
		return "unknown"
	}
}

var defaultPattern = regexp.MustCompile(`Default:\s+("[^"]*"|[0-9]+(?:\.[0-9]+)?|\w+)`)

// extractDefault finds a "Default: X" annotation. It returns the value for
// display and the raw matched value so the sentence can be removed.
func extractDefault(doc string) (value, raw string) {
	matches := defaultPattern.FindStringSubmatch(doc)
	if len(matches) < 2 {
		return "", ""
	}
	raw = matches[1]
	value = strings.TrimRight(raw, ".")
	value = strings.Trim(value, `"`)
	return value, raw
}

// removeDefaultFromDescription removes the "Default: X" sentence from a
// description since the default is shown separately in the table.
func removeDefaultFromDescription(desc, raw string) string {
	re := regexp.MustCompile(`\s*Default:\s+` + regexp.QuoteMeta(raw) + `[^.\n]*\.?`)
	desc = re.ReplaceAllString(desc, "")
	desc = strings.TrimSpace(desc)
	desc = regexp.MustCompile(`\s+`).ReplaceAllString(desc, " ")
	return desc
}

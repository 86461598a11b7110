package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"maps"
	"reflect"
	"slices"
	"strings"
	"text/template"

	"crucible/internal/match"
	"crucible/model"
)

var ErrUnsupportedType = errors.New("gen: type cannot be spelled in generated code")

// recordMethods are promoted from *model.Record and must not be shadowed.
var recordMethods = map[string]bool{
	"Class": true, "Get": true, "Has": true, "Link": true, "Set": true,
	"SetValue": true, "String": true, "Value": true, "Values": true,
}

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package.
	PackageName string
	// OutputDir is where unformatted output is dumped when formatting fails.
	OutputDir string
	// GenerateComments enables doc comments on generated declarations.
	GenerateComments bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PackageName:      "records",
		OutputDir:        "./records",
		GenerateComments: true,
	}
}

// Generator renders record wrappers for persistence classes.
type Generator struct {
	config GeneratorConfig
	// wrappers maps every generated class to its wrapper type name.
	wrappers map[*model.Class]string
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "dog_record.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

type templateData struct {
	PackageName      string
	Imports          []importSpec
	Name             string
	Class            string
	GenerateComments bool
	Fields           []fieldData
}

type fieldData struct {
	Attribute string
	Getter    string
	Setter    string
	Linker    string
	Type      string
	// Kind is one of column, computed, one, many.
	Kind string
	// Target is the wrapper of the relationship target, empty when the
	// target is not generated.
	Target string
}

// Generate renders one file per mapped class, ordered by class name.
// Abstract classes are skipped.
func (g *Generator) Generate(classes []*model.Class) ([]GeneratedFile, error) {
	var mapped []*model.Class

	for _, cls := range classes {
		if !cls.Abstract() {
			mapped = append(mapped, cls)
		}
	}

	slices.SortFunc(mapped, func(a, b *model.Class) int { return strings.Compare(a.Name, b.Name) })

	g.wrappers = make(map[*model.Class]string, len(mapped))
	taken := make(map[string]string, len(mapped))

	for _, cls := range mapped {
		name := exportedName(cls.Name) + "Record"
		if other, ok := taken[name]; ok {
			return nil, fmt.Errorf("classes %s and %s both map to %s", other, cls.Name, name)
		}

		taken[name] = cls.Name
		g.wrappers[cls] = name
	}

	files := make([]GeneratedFile, 0, len(mapped))

	for _, cls := range mapped {
		file, err := g.generateClass(cls)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", cls.Name, err)
		}

		files = append(files, *file)
	}

	return files, nil
}

func (g *Generator) generateClass(cls *model.Class) (*GeneratedFile, error) {
	recordPkg := reflect.TypeFor[model.Record]().PkgPath()
	imps := imports{recordPkg: {Path: recordPkg}}

	data := &templateData{
		PackageName:      g.config.PackageName,
		Name:             g.wrappers[cls],
		Class:            cls.Name,
		GenerateComments: g.config.GenerateComments,
	}

	for _, attr := range cls.Attributes() {
		field, err := g.field(attr, imps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr.Name, err)
		}

		data.Fields = append(data.Fields, field)
	}

	for _, key := range slices.Sorted(maps.Keys(imps)) {
		data.Imports = append(data.Imports, imps[key])
	}

	filename := match.SnakeCase(cls.Name) + "_record.go"

	var buf bytes.Buffer
	if err := recordTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, filename, buf.Bytes())
		}

		return &GeneratedFile{Filename: filename, Content: buf.Bytes()}, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{Filename: filename, Content: formatted}, nil
}

func (g *Generator) field(attr *model.Attribute, imps imports) (fieldData, error) {
	name := exportedName(attr.Name)
	if recordMethods[name] || recordMethods["Set"+name] || recordMethods["Link"+name] {
		name += "Attr"
	}

	f := fieldData{Attribute: attr.Name, Getter: name}

	switch attr.Kind {
	case model.KindColumn:
		f.Kind = "column"
		f.Setter = "Set" + name
	case model.KindComputed:
		f.Kind = "computed"
		if attr.Assign != nil {
			f.Setter = "Set" + name
		}
	case model.KindRelationship:
		f.Kind = "one"
		if attr.Many() {
			f.Kind = "many"
		}

		f.Linker = "Link" + name
		f.Target = g.wrappers[attr.Target]

		return f, nil
	}

	typ, err := typeExpr(attr.Type, imps)
	if err != nil {
		return fieldData{}, err
	}

	f.Type = typ

	return f, nil
}

var recordTemplate = template.Must(template.New("record").Parse(`// Code generated by crucible. DO NOT EDIT.

package {{.PackageName}}

import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{$rec := .Name}}{{$comments := .GenerateComments}}
{{if $comments}}// {{$rec}} is a typed view of a {{.Class}} record.
{{end}}type {{$rec}} struct{ *model.Record }

{{if $comments}}// As{{$rec}} wraps rec if its class is {{.Class}} or inherits from it.
{{end}}func As{{$rec}}(rec *model.Record) ({{$rec}}, bool) {
	if rec == nil {
		return {{$rec}}{}, false
	}

	for c := rec.Class(); c != nil; c = c.Parent {
		if c.Name == "{{.Class}}" {
			return {{$rec}}{rec}, true
		}
	}

	return {{$rec}}{}, false
}
{{range .Fields}}{{if or (eq .Kind "column") (eq .Kind "computed")}}
{{if $comments}}// {{.Getter}} returns the {{.Attribute}} attribute.
{{end}}func (r {{$rec}}) {{.Getter}}() ({{.Type}}, error) {
	v, err := r.Value("{{.Attribute}}")
	if err != nil {
		var zero {{.Type}}

		return zero, err
	}

	out, _ := v.Interface().({{.Type}})

	return out, nil
}
{{if .Setter}}
{{if $comments}}// {{.Setter}} sets the {{.Attribute}} attribute.
{{end}}func (r {{$rec}}) {{.Setter}}(v {{.Type}}) error {
	return r.Set("{{.Attribute}}", v)
}
{{end}}{{else if eq .Kind "one"}}
{{if $comments}}// {{.Getter}} returns the related record, or a nil one.
{{end}}func (r {{$rec}}) {{.Getter}}() ({{if .Target}}{{.Target}}{{else}}*model.Record{{end}}, error) {
	v, err := r.Get("{{.Attribute}}")
	if err != nil {
		return {{if .Target}}{{.Target}}{}{{else}}nil{{end}}, err
	}

	rec, _ := v.(*model.Record)

	return {{if .Target}}{{.Target}}{rec}{{else}}rec{{end}}, nil
}

{{if $comments}}// {{.Linker}} relates target through {{.Attribute}}.
{{end}}func (r {{$rec}}) {{.Linker}}(target {{if .Target}}{{.Target}}{{else}}*model.Record{{end}}) error {
	return r.Link("{{.Attribute}}", target{{if .Target}}.Record{{end}})
}
{{else}}
{{if $comments}}// {{.Getter}} returns the related records.
{{end}}func (r {{$rec}}) {{.Getter}}() ({{if .Target}}[]{{.Target}}{{else}}[]*model.Record{{end}}, error) {
	v, err := r.Get("{{.Attribute}}")
	if err != nil {
		return nil, err
	}

	recs, _ := v.([]*model.Record)
{{if .Target}}
	out := make([]{{.Target}}, len(recs))
	for i, rec := range recs {
		out[i] = {{.Target}}{rec}
	}

	return out, nil
{{else}}
	return recs, nil
{{end}}}

{{if $comments}}// {{.Linker}} adds target to {{.Attribute}}.
{{end}}func (r {{$rec}}) {{.Linker}}(target {{if .Target}}{{.Target}}{{else}}*model.Record{{end}}) error {
	return r.Link("{{.Attribute}}", target{{if .Target}}.Record{{end}})
}
{{end}}{{end}}`))

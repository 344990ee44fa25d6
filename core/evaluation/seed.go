package evaluation

import (
	"bytes"
	_ "embed"
	"io"
	"io/fs"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema/template.cue
var templateSchema []byte

// SeedPattern matches the template seed files of a directory tree.
const SeedPattern = "**/*.{yaml,yml}"

// SeedFile is one decoded seed file; a file may hold several YAML documents.
type SeedFile struct {
	Path      string
	Templates []NewTemplate
}

// Seeder decodes evaluation templates from YAML files, checking them against an embedded CUE schema.
type Seeder struct {
	ctx *cue.Context
	def cue.Value
}

func NewSeeder() (*Seeder, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(templateSchema, cue.Filename("template.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, "compiling template schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Template"))
	if !def.Exists() {
		return nil, errors.New("template schema has no #Template definition")
	}
	return &Seeder{ctx: ctx, def: def}, nil
}

// Decode reads every YAML document of content as a template.
func (s *Seeder) Decode(name string, content []byte) ([]NewTemplate, error) {
	var out []NewTemplate
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for i := 1; ; i++ {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "%s: decoding document %d", name, i)
		}

		var data map[string]interface{}
		if err := node.Decode(&data); err != nil {
			return nil, errors.Wrapf(err, "%s: document %d", name, i)
		}
		if len(data) == 0 {
			continue
		}
		if err := s.check(data); err != nil {
			return nil, errors.Wrapf(err, "%s: document %d", name, i)
		}

		var nt NewTemplate
		if err := node.Decode(&nt); err != nil {
			return nil, errors.Wrapf(err, "%s: document %d", name, i)
		}
		out = append(out, nt)
	}
	return out, nil
}

func (s *Seeder) check(data map[string]interface{}) error {
	v := s.ctx.Encode(data)
	if err := v.Err(); err != nil {
		return errors.Wrap(err, "encoding template")
	}
	unified := s.def.Unify(v)
	if err := unified.Err(); err != nil {
		return errors.Wrap(err, "template does not match the schema")
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(err, "template does not match the schema")
	}
	return nil
}

// Load discovers the seed files of fsys and decodes them, in path order.
func (s *Seeder) Load(fsys fs.FS) ([]SeedFile, error) {
	paths, err := doublestar.Glob(fsys, SeedPattern)
	if err != nil {
		return nil, errors.Wrap(err, "discovering seed files")
	}
	sort.Strings(paths)

	files := make([]SeedFile, 0, len(paths))
	for _, p := range paths {
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", p)
		}
		tmpls, err := s.Decode(p, content)
		if err != nil {
			return nil, err
		}
		files = append(files, SeedFile{Path: p, Templates: tmpls})
	}
	return files, nil
}

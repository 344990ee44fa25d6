package scoring

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Evenson-7/OJTManagement-sub000/core"
)

// Built-in scale IDs
const (
	ScaleNumeric = "numeric-5"
	ScaleLetter  = "letter-5"
)

var (
	// errors
	ErrUnknownScale = errors.New("unknown rating scale")
	ErrEmptyScale   = errors.New("a rating scale needs at least one level")
)

// Level is one discrete rating choice of a Scale.
type Level struct {
	Code    string   `json:"code" yaml:"code"`
	Label   string   `json:"label" yaml:"label"`
	Score   float64  `json:"score" yaml:"score"`
	Color   string   `json:"color" yaml:"color"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases"`
}

// Scale is a named, immutable set of rating levels ordered by score (highest first).
type Scale struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Levels []Level `json:"levels" yaml:"levels"`

	index map[string]int // code or alias -> level position
}

// NewScale validates the levels and builds the lookup index.
// Codes and aliases must be unique within a scale (compared trimmed and case-insensitively).
func NewScale(id, name string, levels ...Level) (Scale, error) {
	id = core.CleanString(id, true)
	if id == "" {
		return Scale{}, errors.New("a rating scale needs an id")
	}
	if len(levels) == 0 {
		return Scale{}, errors.Wrapf(ErrEmptyScale, "scale %q", id)
	}

	lvls := make([]Level, len(levels))
	copy(lvls, levels)
	sort.SliceStable(lvls, func(i, j int) bool { return lvls[i].Score > lvls[j].Score })

	index := make(map[string]int, len(lvls)*2)
	for i, lvl := range lvls {
		keys := append([]string{lvl.Code}, lvl.Aliases...)
		for _, k := range keys {
			k = normalizeKey(k)
			if k == "" {
				return Scale{}, errors.Errorf("scale %q: level %q has an empty code or alias", id, lvl.Label)
			}
			if _, dup := index[k]; dup {
				return Scale{}, errors.Errorf("scale %q: duplicate code or alias %q", id, k)
			}
			index[k] = i
		}
		lvls[i].Aliases = append([]string(nil), lvl.Aliases...)
	}
	return Scale{ID: id, Name: name, Levels: lvls, index: index}, nil
}

func mustScale(id, name string, levels ...Level) Scale {
	s, err := NewScale(id, name, levels...)
	if err != nil {
		panic(err)
	}
	return s
}

func normalizeKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

// Resolve finds the level matching a rating value by code or alias.
func (s Scale) Resolve(value string) (Level, bool) {
	if s.index == nil {
		// zero-value or decoded scale: fall back to a linear search
		key := normalizeKey(value)
		for _, lvl := range s.Levels {
			if normalizeKey(lvl.Code) == key {
				return lvl, key != ""
			}
			for _, a := range lvl.Aliases {
				if normalizeKey(a) == key {
					return lvl, key != ""
				}
			}
		}
		return Level{}, false
	}
	i, ok := s.index[normalizeKey(value)]
	if !ok {
		return Level{}, false
	}
	return s.Levels[i], true
}

// Max returns the highest score of the scale.
func (s Scale) Max() float64 {
	if len(s.Levels) == 0 {
		return 0
	}
	return s.Levels[0].Score
}

// Min returns the lowest score of the scale.
func (s Scale) Min() float64 {
	if len(s.Levels) == 0 {
		return 0
	}
	return s.Levels[len(s.Levels)-1].Score
}

// Codes returns the level codes, highest score first.
func (s Scale) Codes() []string {
	codes := make([]string, 0, len(s.Levels))
	for _, lvl := range s.Levels {
		codes = append(codes, lvl.Code)
	}
	return codes
}

// NumericScale is the 1-5 scale; aliases are the percentage bands printed on paper forms.
func NumericScale() Scale {
	return mustScale(ScaleNumeric, "Numeric (1-5)",
		Level{Code: "5", Label: "Outstanding", Score: 5, Color: "green", Aliases: []string{"96-100"}},
		Level{Code: "4", Label: "Very Satisfactory", Score: 4, Color: "teal", Aliases: []string{"90-95"}},
		Level{Code: "3", Label: "Satisfactory", Score: 3, Color: "blue", Aliases: []string{"85-89"}},
		Level{Code: "2", Label: "Fair", Score: 2, Color: "orange", Aliases: []string{"75-84"}},
		Level{Code: "1", Label: "Poor", Score: 1, Color: "red", Aliases: []string{"60-74"}},
	)
}

// LetterScale is the E/A/S/N/P scale.
func LetterScale() Scale {
	return mustScale(ScaleLetter, "Letter (E/A/S/N/P)",
		Level{Code: "E", Label: "Excellent", Score: 5, Color: "green"},
		Level{Code: "A", Label: "Above Average", Score: 4, Color: "teal"},
		Level{Code: "S", Label: "Satisfactory", Score: 3, Color: "blue"},
		Level{Code: "N", Label: "Needs Improvement", Score: 2, Color: "orange"},
		Level{Code: "P", Label: "Poor", Score: 1, Color: "red"},
	)
}

// Registry holds the rating scales known to the deployment.
// It is populated at startup and read-only afterwards.
type Registry struct {
	scales map[string]Scale
	order  []string
}

// NewRegistry returns a registry with the built-in scales plus the extra ones given.
func NewRegistry(extra ...Scale) (*Registry, error) {
	reg := &Registry{scales: make(map[string]Scale)}
	for _, s := range append([]Scale{NumericScale(), LetterScale()}, extra...) {
		if err := reg.add(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (reg *Registry) add(s Scale) error {
	if s.index == nil {
		built, err := NewScale(s.ID, s.Name, s.Levels...)
		if err != nil {
			return err
		}
		s = built
	}
	if _, ok := reg.scales[s.ID]; !ok {
		reg.order = append(reg.order, s.ID)
	}
	reg.scales[s.ID] = s
	return nil
}

func (reg *Registry) Get(id string) (Scale, error) {
	s, ok := reg.scales[core.CleanString(id, true)]
	if !ok {
		return Scale{}, errors.Wrapf(ErrUnknownScale, "%q", id)
	}
	return s, nil
}

func (reg *Registry) Has(id string) bool {
	_, ok := reg.scales[core.CleanString(id, true)]
	return ok
}

// List returns the scales in registration order.
func (reg *Registry) List() []Scale {
	out := make([]Scale, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.scales[id])
	}
	return out
}

type scalesFile struct {
	Scales []Scale `yaml:"scales"`
}

// ParseScales decodes a YAML document of the form `scales: [{id, name, levels: [...]}]`.
func ParseScales(r io.Reader) ([]Scale, error) {
	var f scalesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decoding scales")
	}

	scales := make([]Scale, 0, len(f.Scales))
	for _, s := range f.Scales {
		built, err := NewScale(s.ID, s.Name, s.Levels...)
		if err != nil {
			return nil, err
		}
		scales = append(scales, built)
	}
	return scales, nil
}

// LoadRegistry returns a registry with the built-in scales plus the ones of the YAML file at path.
// An empty path loads the built-in scales only.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening scales file")
	}
	defer f.Close()

	extra, err := ParseScales(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return NewRegistry(extra...)
}

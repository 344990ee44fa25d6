package evaluation_test

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/assets"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/internal/testutil"
)

func TestSeeder_LoadEmbeddedSeeds(t *testing.T) {
	env := testutil.NewEnv(t)
	seeder, err := evaluation.NewSeeder()
	require.NoError(t, err)

	seeds, err := fs.Sub(assets.FS, assets.SeedsDir)
	require.NoError(t, err)
	files, err := seeder.Load(seeds)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, files[0].Templates, 2)

	it := files[0].Templates[0]
	require.NoError(t, it.Validate(env.Validate, env.Translator, env.Scales))
	assert.Equal(t, "it-standard", it.ID)
	assert.Equal(t, "IT", it.Department)
	assert.Equal(t, scoring.MethodFlat, it.ScoringMethod)
	assert.Len(t, it.Sections, 3)
	assert.Equal(t, "coding", it.Sections[0].Items[0].ID)

	letter := files[0].Templates[1]
	require.NoError(t, letter.Validate(env.Validate, env.Translator, env.Scales))
	assert.Equal(t, scoring.ScaleLetter, letter.ScaleID)
	assert.Equal(t, "s2", letter.Sections[1].ID)
	assert.Empty(t, letter.Essays)
}

func TestSeeder_Decode(t *testing.T) {
	seeder, err := evaluation.NewSeeder()
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		wantErr bool
		want    int
	}{
		{
			name: "valid",
			content: `
id: tiny
title: Tiny
scale: numeric-5
sections:
  - title: One
    items: [{text: "Only item"}]
`,
			want: 1,
		},
		{name: "empty documents are skipped", content: "---\n---\n"},
		{name: "missing id", content: "title: T\nscale: numeric-5\nsections: [{title: A, items: [{text: x}]}]\n", wantErr: true},
		{name: "bad scoring method", content: "id: t\ntitle: T\nscale: numeric-5\nscoring: average\nsections: [{title: A, items: [{text: x}]}]\n", wantErr: true},
		{name: "no items", content: "id: t\ntitle: T\nscale: numeric-5\nsections: [{title: A, items: []}]\n", wantErr: true},
		{name: "negative weight", content: "id: t\ntitle: T\nscale: numeric-5\nsections: [{title: A, weight: -1, items: [{text: x}]}]\n", wantErr: true},
		{name: "not yaml", content: "id: [", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpls, err := seeder.Decode("seed.yaml", []byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tmpls, tt.want)
		})
	}
}

func TestSeeder_LoadDiscoversNestedFiles(t *testing.T) {
	seeder, err := evaluation.NewSeeder()
	require.NoError(t, err)

	doc := []byte("id: a\ntitle: A\nscale: letter-5\nsections: [{title: S, items: [{text: x}]}]\n")
	fsys := fstest.MapFS{
		"b/nested/two.yml": {Data: doc},
		"a.yaml":           {Data: doc},
		"notes.txt":        {Data: []byte("ignored")},
	}
	files, err := seeder.Load(fsys)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.yaml", files[0].Path)
	assert.Equal(t, "b/nested/two.yml", files[1].Path)
}

func TestService_ImportTemplate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	nt := evaluation.NewTemplate{ID: "seeded", Title: "Seeded", ScaleID: "numeric-5", Sections: []evaluation.Section{
		{Title: "A", Items: []evaluation.Item{{Text: "x"}}},
	}}
	require.NoError(t, nt.Validate(env.Validate, env.Translator, env.Scales))

	tmpl, created, err := env.Evaluations.ImportTemplate(ctx, nt)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "seeded", tmpl.ID)

	nt.Title = "Seeded again"
	tmpl, created, err = env.Evaluations.ImportTemplate(ctx, nt)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Seeded again", tmpl.Title)
}

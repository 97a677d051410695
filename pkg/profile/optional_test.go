package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/team-ns/launcher/pkg/manifest"
)

func TestRuleAccepts(t *testing.T) {
	t.Parallel()

	eq := Rule{OsType: manifest.LinuxX64, Compare: CompareEqual}
	assert.True(t, eq.Accepts(manifest.LinuxX64))
	assert.False(t, eq.Accepts(manifest.WindowsX64))

	ne := Rule{OsType: manifest.WindowsX32, Compare: CompareNotEqual}
	assert.False(t, ne.Accepts(manifest.WindowsX32))
	assert.True(t, ne.Accepts(manifest.MacOsX64))
}

func TestOptionalRelevant(t *testing.T) {
	t.Parallel()

	auto := Optional{Enabled: true, Visible: false}
	assert.True(t, auto.Relevant(manifest.LinuxX64, nil),
		"invisible enabled optionals apply automatically")

	disabled := Optional{Enabled: false, Visible: false}
	assert.False(t, disabled.Relevant(manifest.LinuxX64, nil))

	visible := Optional{Name: "shaders", Visible: true, Enabled: true}
	assert.False(t, visible.Relevant(manifest.LinuxX64, nil),
		"visible optionals require explicit selection")
	assert.True(t, visible.Relevant(manifest.LinuxX64, map[string]bool{"shaders": true}))

	gated := Optional{
		Name:    "winonly",
		Visible: true,
		Rules:   []Rule{{OsType: manifest.WindowsX64, Compare: CompareEqual}},
	}
	selected := map[string]bool{"winonly": true}
	assert.True(t, gated.Relevant(manifest.WindowsX64, selected))
	assert.False(t, gated.Relevant(manifest.LinuxX64, selected),
		"rules gate selected optionals too")
}

func TestOptionalFileCollections(t *testing.T) {
	t.Parallel()

	opt := Optional{
		Actions: []Action{
			{Type: ActionFile, Location: LocationLibraries,
				Paths:  []string{"opt/a.jar"},
				Rename: map[string]string{"opt/b-src.jar": "b.jar"}},
			{Type: ActionFile, Location: LocationProfile, Paths: []string{"mods/extra.jar"}},
			{Type: ActionArgs, Args: []string{"-Dfeature=on", "-Xss2m"}},
		},
	}

	assert.Equal(t, []string{"opt/a.jar"}, opt.FilePaths(LocationLibraries))
	assert.Equal(t, []string{"mods/extra.jar"}, opt.FilePaths(LocationProfile))
	assert.Empty(t, opt.FilePaths(LocationAssets))

	assert.Equal(t, map[string]string{"opt/b-src.jar": "b.jar"}, opt.RenamePairs(LocationLibraries))
	assert.Empty(t, opt.RenamePairs(LocationProfile))

	assert.Equal(t, []string{"-Dfeature=on", "-Xss2m"}, opt.ExtraJvmArgs())
	assert.True(t, opt.hasFileActions())
}

func TestRelevantOptionalsPreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	data := &Data{Optionals: []Optional{
		{Name: "b", Visible: true, Actions: []Action{{Type: ActionArgs, Args: []string{"-Db"}}}},
		{Enabled: true, Actions: []Action{{Type: ActionArgs, Args: []string{"-Dauto"}}}},
		{Name: "a", Visible: true, Actions: []Action{{Type: ActionArgs, Args: []string{"-Da"}}}},
	}}

	relevant := data.RelevantOptionals(manifest.LinuxX64, []string{"a", "b"})
	var args []string
	for _, opt := range relevant {
		args = append(args, opt.ExtraJvmArgs()...)
	}
	assert.Equal(t, []string{"-Db", "-Dauto", "-Da"}, args)
}

func TestIrrelevantOptionalsOnlyWithFileActions(t *testing.T) {
	t.Parallel()

	data := &Data{Optionals: []Optional{
		{Name: "files", Visible: true,
			Actions: []Action{{Type: ActionFile, Location: LocationProfile, Paths: []string{"x"}}}},
		{Name: "argsonly", Visible: true,
			Actions: []Action{{Type: ActionArgs, Args: []string{"-Dx"}}}},
	}}

	irrelevant := data.IrrelevantOptionals(manifest.LinuxX64, nil)
	assert.Len(t, irrelevant, 1)
	assert.Equal(t, "files", irrelevant[0].Name)
}

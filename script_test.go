package arbor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptGolden(t *testing.T) {
	for _, name := range []string{"click", "never"} {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", name+".yaml"))
			require.NoError(t, err)
			script, err := ParseScript(data)
			require.NoError(t, err)
			assert.Equal(t, name, script.Name)

			runner := NewScriptRunner(script, nil)
			require.NoError(t, runner.Run())
			assert.True(t, runner.Done())

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, name, []byte(runner.Trace()))
		})
	}
}

func TestParseScriptDefaults(t *testing.T) {
	script, err := ParseScript([]byte("steps:\n  - {op: dump}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), script.Config)

	script, err = ParseScript([]byte("config: {frameloop: demand, width: 400}\nsteps: [{op: dump}]\n"))
	require.NoError(t, err)
	assert.Equal(t, FrameLoopDemand, script.Config.Frameloop)
	assert.Equal(t, 400.0, script.Config.Width)
	assert.Equal(t, 600.0, script.Config.Height)
}

func TestParseScriptErrors(t *testing.T) {
	_, err := ParseScript([]byte("name: empty\n"))
	assert.ErrorIs(t, err, ErrScript)
	_, err = ParseScript([]byte("steps: [\n"))
	assert.ErrorIs(t, err, ErrScript)
}

func TestScriptRunnerStepErrors(t *testing.T) {
	for _, step := range []string{
		"{op: explode}",
		"{op: append, parent: scene, child: ghost}",
		"{op: destroy, node: ghost}",
	} {
		script, err := ParseScript([]byte("steps: [" + step + "]\n"))
		require.NoError(t, err)
		err = NewScriptRunner(script, nil).Run()
		assert.ErrorIs(t, err, ErrScript, step)
	}
}

func TestScriptRunnerResolvesReferences(t *testing.T) {
	script, err := ParseScript([]byte(`
config: {frameloop: demand}
steps:
  - {op: create, id: box, tag: mesh}
  - {op: create, id: geo, tag: box-geometry}
  - {op: prop, node: box, name: geometry, value: $geo}
  - {op: prop, node: box, name: position, value: [1, 2, 3]}
  - {op: set, node: box, name: priority, value: 2}
`))
	require.NoError(t, err)
	runner := NewScriptRunner(script, nil)
	require.NoError(t, runner.Run())

	box := runner.Node("box").Instance()
	obj := box.NativeObject()
	assert.Same(t, runner.Node("geo").Instance().object, obj.Geometry)
	assertVec3(t, vec3(1, 2, 3), obj.Position)
	assert.Equal(t, 2, box.Priority)
	assert.Nil(t, runner.Node("ghost"))
}

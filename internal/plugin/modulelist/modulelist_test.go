package modulelist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DSS32/thym/internal/plugin"
)

func fixture() []*plugin.Plugin {
	return []*plugin.Plugin{
		{
			ID: "com.example.foo",
			Modules: []plugin.JavaScriptModule{
				{Source: "www/foo.js", Name: "Foo", Clobbers: []string{"window.foo"}},
				{Source: "www/android/boot.js", Name: "boot", Platform: "android", Runs: true},
				{Source: "www/ios/ios.js", Name: "ios", Platform: "ios", Merges: []string{"navigator.ios"}},
			},
		},
		{
			ID: "com.example.bar",
			Modules: []plugin.JavaScriptModule{
				{Source: "www/bar.js", Name: "Bar", Merges: []string{"navigator.bar"}},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	want := "cordova.define('cordova/plugin_list', function(require, exports, module) {\n" +
		"module.exports = [" +
		`{"file":"plugins/com.example.foo/www/foo.js","id":"Foo","clobbers":["window.foo"]},` +
		`{"file":"plugins/com.example.foo/www/android/boot.js","id":"boot","runs":true},` +
		`{"file":"plugins/com.example.bar/www/bar.js","id":"Bar","merges":["navigator.bar"]}` +
		"]\n});"

	got, err := Build(fixture(), "android")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBuildIsReproducible(t *testing.T) {
	first, err := Build(fixture(), "ios")
	require.NoError(t, err)
	second, err := Build(fixture(), "ios")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildHonorsModulePlatform(t *testing.T) {
	m, err := plugin.ParseManifestBytes("/src/bar/plugin.xml", []byte(`<plugin id="com.example.bar">
    <name>Bar</name>
    <js-module src="www/ios.js" name="IOSOnly" platform="ios"/>
    <js-module src="www/all.js" name="All"/>
</plugin>`))
	require.NoError(t, err)
	installed := []*plugin.Plugin{m.Plugin()}

	got, err := Build(installed, "android")
	require.NoError(t, err)
	assert.NotContains(t, got, "IOSOnly")
	assert.Contains(t, got, `{"file":"plugins/com.example.bar/www/all.js","id":"All"}`)

	got, err = Build(installed, "ios")
	require.NoError(t, err)
	assert.Contains(t, got, `"id":"IOSOnly"`)
}

func TestSetFieldError(t *testing.T) {
	_, err := setField("{}", "", "x")
	assert.Error(t, err)

	out, err := setField("{}", "id", "Foo")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"Foo"}`, out)
}

func TestBuildFiltersPlatform(t *testing.T) {
	records := Records(fixture(), "ios")
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"Foo", "ios", "Bar"}, ids)

	records = Records(fixture(), "windows")
	assert.Len(t, records, 2)
}

func TestBuildEmpty(t *testing.T) {
	got, err := Build(nil, "android")
	require.NoError(t, err)
	assert.Equal(t,
		"cordova.define('cordova/plugin_list', function(require, exports, module) {\nmodule.exports = []\n});",
		got)
}

func TestParseRoundTrip(t *testing.T) {
	content, err := Build(fixture(), "android")
	require.NoError(t, err)
	records, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, Records(fixture(), "android"), records)

	_, err = Parse("module.exports = []")
	assert.True(t, errors.Is(err, ErrInvalidEnvelope))
}

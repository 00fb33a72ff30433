package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DSS32/thym/internal/project/vfs"
)

const fooManifest = `<?xml version="1.0" encoding="UTF-8"?>
<plugin xmlns="http://apache.org/cordova/ns/plugins/1.0" id="com.example.foo" version="1.2.0">
    <name>Foo</name>
    <description>Foo plugin</description>
    <preference name="API_KEY"/>
    <dependency id="com.example.bar" url="https://example.com/bar" commit="abc123" subdir="src"/>
    <config-file target="config.xml" parent="/*">
        <feature name="Foo"><param name="android-package" value="com.example.Foo"/></feature>
    </config-file>
    <asset src="www/foo.css" target="css/foo.css"/>
    <js-module src="www/foo.js" name="Foo">
        <clobbers target="window.foo"/>
        <merges target="navigator.foo"/>
    </js-module>
    <platform name="android">
        <preference name="ANDROID_ONLY"/>
        <source-file src="src/Foo.java" target-dir="src/com/example" compiler-flags="-O2"/>
        <resource-file src="res/foo.xml" target="res/values/foo.xml"/>
        <lib-file src="libs/foo.jar" arch="arm"/>
        <framework src="com.android.support:support-v4:+" weak="true"/>
        <js-module src="www/android/boot.js" name="boot">
            <runs/>
        </js-module>
    </platform>
    <platform name="ios">
        <header-file src="src/ios/Foo.h" target-dir="Foo"/>
    </platform>
</plugin>
`

func writeManifest(t *testing.T, fsys *vfs.MemFS, dir, content string) string {
	t.Helper()
	p := dir + "/" + ManifestFileName
	require.NoError(t, fsys.AddFile(p, content))
	return p
}

func TestParseManifest(t *testing.T) {
	fsys := vfs.NewMemFS()
	path := writeManifest(t, fsys, "/src/foo", fooManifest)

	m, err := ParseManifest(fsys, path)
	require.NoError(t, err)

	assert.Equal(t, "com.example.foo", m.ID())
	name, ok := m.Name()
	assert.True(t, ok)
	assert.Equal(t, "Foo", name)
	assert.Equal(t, "1.2.0", m.Version())
	assert.True(t, m.VersionValid())
	assert.Equal(t, "Foo plugin", m.Description())
	assert.Equal(t, "/src/foo", m.Dir())
	assert.Equal(t, []string{"android", "ios"}, m.Platforms())
}

func TestParseManifestFromDir(t *testing.T) {
	fsys := vfs.NewMemFS()
	writeManifest(t, fsys, "/src/foo", fooManifest)

	m, err := ParseManifestFromDir(fsys, "/src/foo")
	require.NoError(t, err)
	assert.Equal(t, "/src/foo/plugin.xml", m.Path())
}

func TestParseManifestErrors(t *testing.T) {
	fsys := vfs.NewMemFS()

	t.Run("missing", func(t *testing.T) {
		_, err := ParseManifest(fsys, "/nowhere/plugin.xml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrManifestNotFound))
		assert.False(t, IsMalformed(err))
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeManifest(t, fsys, "/broken", `<plugin id="x"><name>X</plugin>`)
		_, err := ParseManifest(fsys, path)
		require.Error(t, err)
		assert.True(t, IsMalformed(err))

		var merr *ManifestError
		require.True(t, errors.As(err, &merr))
		assert.Equal(t, path, merr.Path)
	})

	t.Run("empty", func(t *testing.T) {
		path := writeManifest(t, fsys, "/empty", "")
		_, err := ParseManifest(fsys, path)
		assert.True(t, IsMalformed(err))
	})

	t.Run("no id", func(t *testing.T) {
		path := writeManifest(t, fsys, "/noid", `<plugin><name>X</name></plugin>`)
		_, err := ParseManifest(fsys, path)
		assert.True(t, errors.Is(err, ErrMissingID))
		assert.False(t, IsMalformed(err))
	})
}

func TestManifestNameAbsent(t *testing.T) {
	m, err := ParseManifestBytes("/p/plugin.xml", []byte(`<plugin id="a"/>`))
	require.NoError(t, err)

	_, ok := m.Name()
	assert.False(t, ok)
	assert.True(t, m.VersionValid())
}

func TestManifestVersionInvalid(t *testing.T) {
	m, err := ParseManifestBytes("/p/plugin.xml", []byte(`<plugin id="a" version="one"/>`))
	require.NoError(t, err)
	assert.False(t, m.VersionValid())
}

func TestNodeImmediateChildrenOnly(t *testing.T) {
	m, err := ParseManifestBytes("/src/foo/plugin.xml", []byte(fooManifest))
	require.NoError(t, err)

	root := m.Root()
	assert.Equal(t, []Preference{{Name: "API_KEY"}}, root.Preferences())
	assert.Empty(t, root.SourceFiles())
	assert.Empty(t, root.HeaderFiles())

	android := m.PlatformBlock("android")
	require.NotNil(t, android)
	assert.Equal(t, "android", android.Platform())
	assert.Equal(t, []Preference{{Name: "ANDROID_ONLY"}}, android.Preferences())
	assert.Empty(t, android.Dependencies())

	assert.Nil(t, m.PlatformBlock("windows"))
	assert.Empty(t, m.PlatformBlock("windows").Assets())
}

func TestNodeDeclarations(t *testing.T) {
	m, err := ParseManifestBytes("/src/foo/plugin.xml", []byte(fooManifest))
	require.NoError(t, err)

	root := m.Root()
	assert.Equal(t, []Dependency{{
		ID: "com.example.bar", URL: "https://example.com/bar", Commit: "abc123", Subdir: "src",
	}}, root.Dependencies())
	assert.Equal(t, []Asset{{Src: "www/foo.css", Target: "css/foo.css"}}, root.Assets())

	cfs := root.ConfigFiles()
	require.Len(t, cfs, 1)
	assert.Equal(t, "config.xml", cfs[0].Target)
	assert.Equal(t, "/*", cfs[0].Parent)
	assert.Contains(t, cfs[0].Fragment, `<config-file target="config.xml" parent="/*">`)
	assert.Contains(t, cfs[0].Fragment, `<param name="android-package" value="com.example.Foo"/>`)

	android := m.PlatformBlock("android")
	assert.Equal(t, []SourceFile{{
		Src: "src/Foo.java", TargetDir: "src/com/example", CompilerFlags: "-O2",
	}}, android.SourceFiles())
	assert.Equal(t, []ResourceFile{{Src: "res/foo.xml", Target: "res/values/foo.xml"}}, android.ResourceFiles())
	assert.Equal(t, []LibFile{{Src: "libs/foo.jar", Arch: "arm"}}, android.LibFiles())
	assert.Equal(t, []Framework{{Src: "com.android.support:support-v4:+", Weak: "true"}}, android.Frameworks())

	ios := m.PlatformBlock("ios")
	assert.Equal(t, []HeaderFile{{Src: "src/ios/Foo.h", TargetDir: "Foo"}}, ios.HeaderFiles())
}

func TestManifestModules(t *testing.T) {
	m, err := ParseManifestBytes("/src/foo/plugin.xml", []byte(fooManifest))
	require.NoError(t, err)

	mods := m.Modules()
	require.Len(t, mods, 2)

	assert.Equal(t, JavaScriptModule{
		Source:   "www/foo.js",
		Name:     "Foo",
		Clobbers: []string{"window.foo"},
		Merges:   []string{"navigator.foo"},
	}, mods[0])
	assert.Equal(t, JavaScriptModule{
		Source:   "www/android/boot.js",
		Name:     "boot",
		Platform: "android",
		Runs:     true,
	}, mods[1])
}

func TestJSModulePlatformAttribute(t *testing.T) {
	m, err := ParseManifestBytes("/src/bar/plugin.xml", []byte(`<plugin id="com.example.bar">
    <name>Bar</name>
    <js-module src="www/ios.js" name="IOSOnly" platform="ios"/>
    <js-module src="www/all.js" name="All"/>
    <platform name="android">
        <js-module src="www/android.js" name="Boot"/>
    </platform>
</plugin>`))
	require.NoError(t, err)

	mods := m.Modules()
	require.Len(t, mods, 3)
	assert.Equal(t, "ios", mods[0].Platform)
	assert.Equal(t, "", mods[1].Platform)
	assert.Equal(t, "android", mods[2].Platform)

	p := m.Plugin()
	var android []string
	for _, mod := range p.ModulesFor("android") {
		android = append(android, mod.Name)
	}
	assert.Equal(t, []string{"All", "Boot"}, android)
	require.Len(t, p.ModulesFor("ios"), 2)
	assert.Equal(t, "IOSOnly", p.ModulesFor("ios")[0].Name)
}

func TestManifestPlugin(t *testing.T) {
	m, err := ParseManifestBytes("/src/foo/plugin.xml", []byte(fooManifest))
	require.NoError(t, err)

	p := m.Plugin()
	assert.Equal(t, "com.example.foo", p.ID)
	assert.Equal(t, "Foo", p.Name)
	assert.Equal(t, []string{"API_KEY", "ANDROID_ONLY"}, p.Preferences)
	assert.True(t, p.SupportsPlatform("ios"))
	assert.False(t, p.SupportsPlatform("windows"))
	assert.Len(t, p.ModulesFor("android"), 2)
	assert.Len(t, p.ModulesFor("ios"), 1)
	assert.True(t, p.Equal(&Plugin{ID: "com.example.foo"}))
	assert.False(t, p.Equal(nil))
}

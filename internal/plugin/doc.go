// Package plugin models hybrid-app plugins installed into a project.
//
// A plugin is a directory containing a plugin.xml manifest plus the native
// and JavaScript sources it declares. Installed plugins live below the
// project's plugins folder, one folder per plugin id:
//
//	<project>/plugins/
//	├── com.example.foo/
//	│   ├── plugin.xml
//	│   ├── www/foo.js
//	│   └── src/android/Foo.java
//	└── com.example.bar/
//	    └── plugin.xml
//
// # Manifest
//
// ParseManifest reads plugin.xml into a Manifest. The manifest exposes typed
// declarations for the root (common) block and for each <platform> block.
// Queries return immediate children only, so a declaration inside a
// platform block is never reported for the root and vice versa:
//
//	m, err := plugin.ParseManifestFromDir(fsys, "/tmp/checkout")
//	if err != nil {
//	    var merr *plugin.ManifestError
//	    if errors.As(err, &merr) && merr.Malformed {
//	        // broken plugin.xml
//	    }
//	}
//	for _, sf := range m.PlatformBlock("android").SourceFiles() {
//	    fmt.Println(sf.Src, sf.TargetDir)
//	}
//
// # Registry
//
// Registry lists the installed plugins by scanning the plugins folder. The
// result is cached until Invalidate is called; the project manager
// invalidates after every install and uninstall. IsInstalled never scans.
//
// Registry.Watch invalidates the cache when the plugins folder changes on
// disk behind the manager's back.
package plugin

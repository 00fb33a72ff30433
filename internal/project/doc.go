// Package project installs plugins into a hybrid application project.
//
// A project is a folder holding the config document (config.xml), the
// installed plugins and one project per target platform:
//
//	<root>/
//	├── config.xml
//	├── plugins/<id>/plugin.xml
//	└── platforms/
//	    ├── android/
//	    └── ios/
//
// # Manager
//
// Manager is the entry point. It resolves plugin sources (local folders or
// git URIs), plans the attach phase, executes it as one batch and keeps
// the plugin registry in sync:
//
//	mgr := project.NewManager(project.New("/work/app"), vfs.NewOSFS())
//	if err := mgr.Install(ctx, "https://example.com/foo.git#v1.0.0", action.AlwaysOverwrite); err != nil {
//	    st := project.StatusFromError(err)
//	    fmt.Println(st.Code, st.Message)
//	}
//
//	// Materialize every installed plugin into the android project.
//	if err := mgr.CompletePlatform(ctx, "android", action.AlwaysOverwrite); err != nil {
//	    ...
//	}
//
// Uninstall reverses only the attach phase. Files already materialized in
// platform projects stay until the platform is completed again.
//
// # Concurrency
//
// A Manager serializes install, uninstall and completion; listing runs
// concurrently with other reads. Two managers over the same folder are not
// coordinated.
//
// # Cancellation
//
// Every operation takes a context. Cancellation is observed between
// actions, before cloning, before checkout and before each platform; a
// cancelled operation returns nil and leaves completed steps in place.
package project

package action

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/DSS32/thym/internal/project/vfs"
)

// FrameworkIndexFile is where platform projects record linked frameworks.
const FrameworkIndexFile = "frameworks.json"

// LinkFramework records a framework in the platform's framework index for
// the native build to link. Entries are keyed by plugin and src.
type LinkFramework struct {
	Index    string
	Src      string
	Weak     string
	PluginID string
}

// FrameworkEntry is one linked framework.
type FrameworkEntry struct {
	Src    string `json:"src"`
	Weak   bool   `json:"weak,omitempty"`
	Plugin string `json:"plugin"`
}

func (a *LinkFramework) Kind() Kind { return KindLinkFramework }

func (a *LinkFramework) String() string {
	return fmt.Sprintf("link framework %s", a.Src)
}

func (a *LinkFramework) Install(_ context.Context, fsys vfs.VFS) error {
	doc, err := a.load(fsys)
	if err != nil {
		return err
	}
	doc, err = a.remove(doc)
	if err != nil {
		return err
	}
	doc, err = sjson.Set(doc, "frameworks.-1", FrameworkEntry{
		Src:    a.Src,
		Weak:   a.Weak == "true",
		Plugin: a.PluginID,
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", a.Index, err)
	}
	return writeFile(fsys, a.Index, []byte(doc))
}

func (a *LinkFramework) Uninstall(_ context.Context, fsys vfs.VFS) error {
	if !fsys.IsRegular(a.Index) {
		return nil
	}
	doc, err := a.load(fsys)
	if err != nil {
		return err
	}
	doc, err = a.remove(doc)
	if err != nil {
		return err
	}
	return writeFile(fsys, a.Index, []byte(doc))
}

func (a *LinkFramework) load(fsys vfs.VFS) (string, error) {
	if !fsys.IsRegular(a.Index) {
		return `{"frameworks":[]}`, nil
	}
	data, err := fsys.ReadFile(a.Index)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%s: invalid JSON", a.Index)
	}
	return string(data), nil
}

// remove deletes this action's entries, last first so indexes stay valid.
func (a *LinkFramework) remove(doc string) (string, error) {
	entries := gjson.Get(doc, "frameworks").Array()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Get("src").String() != a.Src || e.Get("plugin").String() != a.PluginID {
			continue
		}
		var err error
		doc, err = sjson.Delete(doc, "frameworks."+strconv.Itoa(i))
		if err != nil {
			return "", fmt.Errorf("update %s: %w", a.Index, err)
		}
	}
	return doc, nil
}

// LinkedFrameworks reads a framework index.
func LinkedFrameworks(fsys vfs.VFS, index string) ([]FrameworkEntry, error) {
	if !fsys.IsRegular(index) {
		return nil, nil
	}
	data, err := fsys.ReadFile(index)
	if err != nil {
		return nil, err
	}
	var out []FrameworkEntry
	gjson.GetBytes(data, "frameworks").ForEach(func(_, v gjson.Result) bool {
		out = append(out, FrameworkEntry{
			Src:    v.Get("src").String(),
			Weak:   v.Get("weak").Bool(),
			Plugin: v.Get("plugin").String(),
		})
		return true
	})
	return out, nil
}

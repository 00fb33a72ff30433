// Package modulelist generates the JavaScript module list a platform loads
// at startup (cordova_plugins.js).
//
// The output is a pure function of the ordered plugin list and the target
// platform, so regenerating it for an unchanged project yields identical
// bytes.
package modulelist

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/DSS32/thym/internal/plugin"
)

// FileName is the generated artifact's name inside a platform's www folder.
const FileName = "cordova_plugins.js"

const (
	prefix = "cordova.define('cordova/plugin_list', function(require, exports, module) {\nmodule.exports = "
	suffix = "\n});"
)

// ErrInvalidEnvelope is returned by Parse for content that is not a module list.
var ErrInvalidEnvelope = errors.New("not a generated module list")

// Record is one entry of the module list.
type Record struct {
	File     string
	ID       string
	Runs     bool
	Clobbers []string
	Merges   []string
}

// Records returns the entries for platformID: plugin order first, then
// module declaration order.
func Records(plugins []*plugin.Plugin, platformID string) []Record {
	var out []Record
	for _, p := range plugins {
		for _, m := range p.ModulesFor(platformID) {
			out = append(out, Record{
				File:     path.Join("plugins", p.ID, m.Source),
				ID:       m.Name,
				Runs:     m.Runs,
				Clobbers: m.Clobbers,
				Merges:   m.Merges,
			})
		}
	}
	return out
}

// Build renders the module list for platformID.
func Build(plugins []*plugin.Plugin, platformID string) (string, error) {
	return Render(Records(plugins, platformID))
}

// Render serializes records into the module list envelope.
func Render(records []Record) (string, error) {
	doc := "[]"
	for i, r := range records {
		entry, err := encodeRecord(r)
		if err != nil {
			return "", fmt.Errorf("module %d (%s): %w", i, r.ID, err)
		}
		if doc, err = sjson.SetRaw(doc, "-1", entry); err != nil {
			return "", fmt.Errorf("module %d (%s): %w", i, r.ID, err)
		}
	}
	return prefix + doc + suffix, nil
}

func encodeRecord(r Record) (string, error) {
	entry := "{}"
	var err error
	set := func(key string, value any) {
		if err == nil {
			entry, err = setField(entry, key, value)
		}
	}
	set("file", r.File)
	set("id", r.ID)
	if r.Runs {
		set("runs", true)
	}
	if len(r.Clobbers) > 0 {
		set("clobbers", r.Clobbers)
	}
	if len(r.Merges) > 0 {
		set("merges", r.Merges)
	}
	return entry, err
}

func setField(doc, key string, value any) (string, error) {
	out, err := sjson.Set(doc, key, value)
	if err != nil {
		return "", fmt.Errorf("set %q: %w", key, err)
	}
	return out, nil
}

// Parse reads records back from a generated module list.
func Parse(content string) ([]Record, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) || !strings.HasSuffix(content, suffix) {
		return nil, ErrInvalidEnvelope
	}
	body := strings.TrimSuffix(strings.TrimPrefix(content, prefix), suffix)
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON body", ErrInvalidEnvelope)
	}

	var out []Record
	for _, v := range gjson.Parse(body).Array() {
		r := Record{
			File: v.Get("file").String(),
			ID:   v.Get("id").String(),
			Runs: v.Get("runs").Bool(),
		}
		for _, c := range v.Get("clobbers").Array() {
			r.Clobbers = append(r.Clobbers, c.String())
		}
		for _, m := range v.Get("merges").Array() {
			r.Merges = append(r.Merges, m.String())
		}
		out = append(out, r)
	}
	return out, nil
}

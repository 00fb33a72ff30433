// Package variables substitutes $NAME references in plugin patch bodies.
//
// Values come, in order of precedence, from explicitly set variables
// (configuration and command line), the application identity
// (PACKAGE_NAME, APP_NAME) and finally the process environment.
package variables

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ErrUnresolved is matched by UnresolvedError.
var ErrUnresolved = errors.New("unresolved variable")

// UnresolvedError lists the variables a text referenced without a value.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved variables: %s", strings.Join(e.Names, ", "))
}

func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

var reference = regexp.MustCompile(`\$([A-Z][A-Z0-9_]*)`)

// Resolver holds variable values.
type Resolver struct {
	vars   map[string]string
	lookup func(string) (string, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnv sets the environment lookup; nil disables it.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookup = lookup
	}
}

// WithVars adds variables.
func WithVars(vars map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range vars {
			r.vars[k] = v
		}
	}
}

// New creates a resolver that falls back to os.LookupEnv.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		vars:   make(map[string]string),
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set defines a variable, overriding the environment.
func (r *Resolver) Set(name, value string) {
	r.vars[name] = value
}

// SetDefault defines a variable unless it already has a value.
func (r *Resolver) SetDefault(name, value string) {
	if _, ok := r.vars[name]; !ok {
		r.vars[name] = value
	}
}

// Lookup returns the value of name.
func (r *Resolver) Lookup(name string) (string, bool) {
	if v, ok := r.vars[name]; ok {
		return v, true
	}
	if r.lookup != nil {
		return r.lookup(name)
	}
	return "", false
}

// Substitute replaces every $NAME in s. When any reference has no value it
// returns s unchanged together with an *UnresolvedError.
func (r *Resolver) Substitute(s string) (string, error) {
	return r.SubstituteFunc(s, nil)
}

// SubstituteXML is Substitute for serialized XML: values are escaped so
// that they stay character data or attribute text.
func (r *Resolver) SubstituteXML(s string) (string, error) {
	return r.SubstituteFunc(s, EscapeXML)
}

// SubstituteFunc is Substitute with every value passed through escape.
// A nil escape inserts values verbatim.
func (r *Resolver) SubstituteFunc(s string, escape func(string) string) (string, error) {
	var missing []string
	out := reference.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1:]
		v, ok := r.Lookup(name)
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return ref
		}
		if escape != nil {
			v = escape(v)
		}
		return v
	})
	if len(missing) > 0 {
		return s, &UnresolvedError{Names: missing}
	}
	return out, nil
}

// EscapeXML escapes v for use in XML text and quoted attribute values.
func EscapeXML(v string) string {
	var b strings.Builder
	// Writes to a strings.Builder never fail.
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}

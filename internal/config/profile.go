// Package config loads projection profiles: the YAML settings the prism CLI and
// inspector translate into host, split, join and rebind options.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/prism"
	"github.com/aretw0/prism/internal/logging"
	"github.com/aretw0/prism/pkg/cache"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/projection"
	"github.com/aretw0/prism/pkg/rebind"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/mitchellh/mapstructure"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is returned when a profile cannot be decoded or fails validation.
var ErrInvalidProfile = zerr.New("invalid profile")

// Profile is a projection profile.
// It uses "mapstructure" tags to match the snake_case YAML keys.
type Profile struct {
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFormat string `json:"log_format" mapstructure:"log_format"`

	Cache  Cache  `json:"cache" mapstructure:"cache"`
	Split  Split  `json:"split" mapstructure:"split"`
	Policy Policy `json:"policy" mapstructure:"policy"`

	// Rebinding
	Aliases     map[string]string `json:"aliases" mapstructure:"aliases"`
	OnlyAliases bool              `json:"only_aliases" mapstructure:"only_aliases"`
}

type Cache struct {
	Window  int  `json:"window" mapstructure:"window"`
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type Split struct {
	NilOnNull  bool     `json:"nil_on_null" mapstructure:"nil_on_null"`
	ExposeTags []string `json:"expose_tags" mapstructure:"expose_tags"`
}

type Policy struct {
	Whitelist []string `json:"whitelist" mapstructure:"whitelist"`
	Blacklist []string `json:"blacklist" mapstructure:"blacklist"`
	NoFlatten []string `json:"no_flatten" mapstructure:"no_flatten"`
	Methods   bool     `json:"methods" mapstructure:"methods"`
}

// Defaults returns the profile used for missing keys.
func Defaults() Profile {
	return Profile{
		LogLevel:  "info",
		LogFormat: string(logging.FormatText),
		Cache:     Cache{Window: cache.DefaultWindow, Enabled: true},
	}
}

// Load decodes a profile from r. JSON input is accepted as YAML.
// An empty document yields Defaults.
func Load(r io.Reader) (Profile, error) {
	p := Defaults()

	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return p, nil
		}
		return p, zerr.Wrap(ErrInvalidProfile, err.Error())
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, zerr.Wrap(ErrInvalidProfile, err.Error())
	}
	return p, p.Validate()
}

// LoadFile loads the profile at path.
func LoadFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, zerr.Wrap(err, "failed to open profile")
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return p, zerr.With(err, "path", path)
	}
	return p, nil
}

// Validate checks value ranges.
func (p Profile) Validate() error {
	if p.Cache.Window < 1 {
		return zerr.With(zerr.Wrap(ErrInvalidProfile, "cache.window must be at least 1"), "window", p.Cache.Window)
	}
	if _, err := logging.ParseLevel(p.LogLevel); err != nil {
		return zerr.Wrap(ErrInvalidProfile, err.Error())
	}
	switch logging.Format(p.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return zerr.With(zerr.Wrap(ErrInvalidProfile, "unknown log format"), "log_format", p.LogFormat)
	}
	return nil
}

// Logger builds the logger described by the profile, writing to w.
func (p Profile) Logger(w io.Writer) *slog.Logger {
	level, _ := logging.ParseLevel(p.LogLevel)
	return logging.NewWriter(w, level, logging.Format(p.LogFormat))
}

// HostOptions translates the profile into Host options.
func (p Profile) HostOptions() []prism.Option {
	return []prism.Option{prism.WithCacheWindow(p.Cache.Window)}
}

// SplitOptions translates the profile into Split options.
func (p Profile) SplitOptions(names *typeinfo.Names) ([]projection.Option, error) {
	typeOpts, err := p.typeOptions(names)
	if err != nil {
		return nil, err
	}
	return []projection.Option{
		projection.WithPolicy(p.policy()),
		projection.WithTypeOptions(typeOpts),
		projection.WithObjectCache(p.Cache.Enabled),
		projection.WithNilOnNull(p.Split.NilOnNull),
		projection.WithExposedTags(p.Split.ExposeTags...),
	}, nil
}

// JoinOptions translates the profile into Join options.
func (p Profile) JoinOptions(names *typeinfo.Names) ([]projection.Option, error) {
	typeOpts, err := p.typeOptions(names)
	if err != nil {
		return nil, err
	}
	return []projection.Option{
		projection.WithPolicy(p.policy()),
		projection.WithTypeOptions(typeOpts),
	}, nil
}

// RebindOptions translates the profile into rebinding group options.
// Profile aliases extend the default alias table.
func (p Profile) RebindOptions(names *typeinfo.Names) ([]rebind.Option, error) {
	aliases := rebind.DefaultAliases()
	if err := aliases.Merge(p.Aliases, names); err != nil {
		return nil, err
	}
	return []rebind.Option{
		rebind.WithNames(names),
		rebind.WithAliases(aliases),
		rebind.WithOnlyAliases(p.OnlyAliases),
	}, nil
}

func (p Profile) policy() typeinfo.Policy {
	return typeinfo.Policy{Whitelist: p.Policy.Whitelist, Blacklist: p.Policy.Blacklist}
}

func (p Profile) typeOptions(names *typeinfo.Names) (typeinfo.Options, error) {
	opts := typeinfo.Options{Methods: p.Policy.Methods}
	var errs []error
	for _, name := range p.Policy.NoFlatten {
		t, ok := names.Lookup(name)
		if !ok {
			errs = append(errs, zerr.Wrap(domain.ErrTypeNotResolved, fmt.Sprintf("no_flatten %q", name)))
			continue
		}
		opts.NoFlatten = append(opts.NoFlatten, t)
	}
	return opts, errors.Join(errs...)
}

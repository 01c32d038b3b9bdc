package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Remotes holds all named backends and tracks which one is active.
type Remotes struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named backend profile.
type Remote struct {
	URL         string `toml:"url"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

// RemotesPath returns ~/.local/state/sitenav/remotes.toml, creating the
// directory when needed.
func RemotesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "sitenav")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

// LoadRemotes reads the remotes file at path. A missing file is empty.
func LoadRemotes(path string) (Remotes, error) {
	var r Remotes
	if _, err := toml.DecodeFile(path, &r); err != nil {
		if os.IsNotExist(err) {
			return Remotes{Remotes: map[string]Remote{}}, nil
		}
		return Remotes{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if r.Remotes == nil {
		r.Remotes = map[string]Remote{}
	}
	return r, nil
}

// Save writes r to path with owner-only permissions.
func (r Remotes) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(r)
}

// Current returns the active remote, if one is set and still defined.
func (r Remotes) Current() (Remote, bool) {
	if r.Active == "" {
		return Remote{}, false
	}
	rem, ok := r.Remotes[r.Active]
	return rem, ok
}

// ErrUnknownRemote is returned for names absent from the remotes file.
var ErrUnknownRemote = errors.New("unknown remote")

// Lookup resolves name, or the active remote when name is empty.
func (r Remotes) Lookup(name string) (string, Remote, error) {
	if name == "" {
		name = r.Active
	}
	if name == "" {
		return "", Remote{}, errors.New("no active remote; specify a name or run 'sn remote use <name>'")
	}
	rem, ok := r.Remotes[name]
	if !ok {
		return "", Remote{}, fmt.Errorf("%w %q", ErrUnknownRemote, name)
	}
	return name, rem, nil
}

// Put adds or replaces a remote after checking its URLs.
func (r *Remotes) Put(name string, rem Remote) error {
	if name == "" {
		return errors.New("remote name must not be empty")
	}
	if err := checkURL(rem.URL, "http", "https"); err != nil {
		return fmt.Errorf("remote %q: %w", name, err)
	}
	if rem.NATSURL != "" {
		if err := checkURL(rem.NATSURL, "nats", "tls"); err != nil {
			return fmt.Errorf("remote %q: %w", name, err)
		}
	}
	r.Remotes[name] = rem
	return nil
}

// Delete removes a remote, clearing Active when it pointed there.
func (r *Remotes) Delete(name string) error {
	if _, ok := r.Remotes[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownRemote, name)
	}
	delete(r.Remotes, name)
	if r.Active == name {
		r.Active = ""
	}
	return nil
}

// Use makes name the active remote.
func (r *Remotes) Use(name string) error {
	if _, ok := r.Remotes[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownRemote, name)
	}
	r.Active = name
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid url %q: want %s://host", raw, schemes[0])
}

// Names returns the remote names in sorted order.
func (r Remotes) Names() []string {
	names := make([]string, 0, len(r.Remotes))
	for name := range r.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyRemote fills the backend and NATS URLs from rem unless the
// environment already set them.
func (c *Config) ApplyRemote(rem Remote) {
	if os.Getenv("SITENAV_URL") == "" && rem.URL != "" {
		c.URL = rem.URL
	}
	if os.Getenv("SITENAV_NATS_URL") == "" && rem.NATSURL != "" {
		c.NATSURL = rem.NATSURL
	}
}

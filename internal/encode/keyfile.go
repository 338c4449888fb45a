package encode

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/nishad/encode-audit/internal/errors"
)

// Credentials identify a portal and the access key used to talk to it.
// Key and Secret may be empty for anonymous access to released data.
type Credentials struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
	Server string `json:"server"`
}

// LoadKeyfile reads the named key pair from an ENCODE keypairs.json file:
//
//	{"default": {"key": "...", "secret": "...", "server": "https://www.encodeproject.org"}}
func LoadKeyfile(path, name string) (Credentials, error) {
	const op errors.Op = "encode.LoadKeyfile"

	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, errors.E(op, errors.KindConfig, err, "cannot read keyfile")
	}

	var pairs map[string]Credentials
	if err := json.Unmarshal(data, &pairs); err != nil {
		return Credentials{}, errors.E(op, errors.KindConfig, err, "keyfile is not valid JSON")
	}

	creds, ok := pairs[name]
	if !ok {
		return Credentials{}, errors.Errorf(op, errors.KindConfig, "key %q not found in %s", name, path)
	}
	return creds, nil
}

// Validate checks that a usable server URL is present and normalizes it.
func (c Credentials) Validate() (Credentials, error) {
	server := strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if server == "" {
		return c, errors.Errorf("encode.Credentials", errors.KindConfig, "no server configured")
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "https://" + server
	}
	c.Server = server
	return c, nil
}

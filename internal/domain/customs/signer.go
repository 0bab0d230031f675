package customs

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSigner signs declarations for companies without a named signer.
const DefaultSigner = "Shipping Manager"

// SignerDirectory maps sender companies to the person who signs their
// customs declarations. It is immutable after construction.
type SignerDirectory struct {
	signers map[string]string
}

// NewSignerDirectory copies signers into a case-insensitive directory.
func NewSignerDirectory(signers map[string]string) *SignerDirectory {
	d := &SignerDirectory{signers: make(map[string]string, len(signers))}
	for company, person := range signers {
		if key := foldCompany(company); key != "" && strings.TrimSpace(person) != "" {
			d.signers[key] = strings.TrimSpace(person)
		}
	}
	return d
}

// LoadSignerDirectory reads a YAML file of the form
//
//	signers:
//	  Acme Corp: Jane Roe
func LoadSignerDirectory(path string) (*SignerDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signer directory: %w", err)
	}
	var f struct {
		Signers map[string]string `yaml:"signers"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing signer directory: %w", err)
	}
	return NewSignerDirectory(f.Signers), nil
}

// Signer returns the signer for company, or DefaultSigner.
func (d *SignerDirectory) Signer(company string) string {
	if d != nil {
		if name, ok := d.signers[foldCompany(company)]; ok {
			return name
		}
	}
	return DefaultSigner
}

// Len returns the number of named signers.
func (d *SignerDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.signers)
}

func foldCompany(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

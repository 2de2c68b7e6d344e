package out

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"studystreak/internal/modules/progression/domain"
)

//go:embed characters.yaml
var defaultCatalog []byte

type catalogFile struct {
	Worlds []struct {
		ID         string             `yaml:"id"`
		Characters []domain.Character `yaml:"characters"`
	} `yaml:"worlds"`
}

// DefaultCatalog returns the unlock table shipped with the binary.
func DefaultCatalog() (*domain.Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// LoadCatalog reads an unlock table from a YAML file with the same layout as characters.yaml.
func LoadCatalog(path string) (*domain.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

func ReadCatalog(r io.Reader) (*domain.Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) (*domain.Catalog, error) {
	file := catalogFile{}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	characters := []domain.Character{}
	for _, world := range file.Worlds {
		for _, c := range world.Characters {
			c.WorldID = world.ID
			characters = append(characters, c)
		}
	}
	catalog, err := domain.NewCatalog(characters)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

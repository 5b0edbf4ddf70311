package letters

import (
	"bytes"
	_ "embed"
	"github.com/myrjola/lettergen/internal/errors"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogFile is the name of the optional catalog override at the root of a template directory.
const CatalogFile = "catalog.yaml"

var ErrTemplateDir = errors.NewSentinel("invalid template directory")

// Catalog maps letter kinds to template files relative to the template directory.
type Catalog struct {
	Bank         BankTemplates         `yaml:"bank"`
	Intermediary IntermediaryTemplates `yaml:"intermediary"`
	TSP          TSPTemplates          `yaml:"tsp"`
}

type BankTemplates struct {
	Template string `yaml:"template"`
}

type IntermediaryTemplates struct {
	Dir       string              `yaml:"dir"`
	Default   Platform            `yaml:"default"`
	Platforms map[string]Platform `yaml:"platforms"`
}

// Platform describes the notice template of one intermediary.
type Platform struct {
	Template string `yaml:"template"`
	// Heading titles the identifier column of the account table.
	Heading string `yaml:"heading"`
	// IDTypes, when set, lists the identifier kinds the platform accepts. The column heading is then the plural of
	// the chosen kind.
	IDTypes []string `yaml:"id_types"`
}

type TSPTemplates struct {
	Dir       string                 `yaml:"dir"`
	Providers []string               `yaml:"providers"`
	Requests  map[string]RequestType `yaml:"requests"`
}

// RequestType describes a telecom request and the identifiers it takes.
type RequestType struct {
	Template string `yaml:"template"`
	// Digits is the exact length of each identifier. Zero accepts any non-empty value.
	Digits int `yaml:"digits"`
	// DateRange requires a from and to date.
	DateRange bool `yaml:"date_range"`
}

// DefaultCatalog returns the built-in template layout.
func DefaultCatalog() (Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// LoadCatalog reads the catalog override in templateDir, falling back to [DefaultCatalog] when there is none.
func LoadCatalog(templateDir string) (Catalog, error) {
	path := filepath.Join(templateDir, CatalogFile)
	data, err := os.ReadFile(path) //nolint:gosec // the operator picks the template directory.
	if errors.Is(err, os.ErrNotExist) {
		return DefaultCatalog()
	}
	if err != nil {
		return Catalog{}, errors.Wrap(err, "read catalog", slog.String("path", path))
	}
	c, err := parseCatalog(data)
	if err != nil {
		return Catalog{}, errors.Wrap(err, "load catalog", slog.String("path", path))
	}
	return c, nil
}

func parseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return Catalog{}, errors.Wrap(err, "decode catalog")
	}

	var problems []string
	if c.Bank.Template == "" {
		problems = append(problems, "bank.template")
	}
	if c.Intermediary.Default.Template == "" {
		problems = append(problems, "intermediary.default.template")
	}
	for name, p := range c.Intermediary.Platforms {
		if p.Template == "" {
			problems = append(problems, "intermediary.platforms."+name+".template")
		}
	}
	if len(c.TSP.Requests) == 0 {
		problems = append(problems, "tsp.requests")
	}
	for name, r := range c.TSP.Requests {
		if r.Template == "" {
			problems = append(problems, "tsp.requests."+name+".template")
		}
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return Catalog{}, errors.New("incomplete catalog", slog.Any("missing", problems))
	}
	return c, nil
}

// Platform returns the template of the named intermediary. Unknown platforms use the default template, and
// platforms without a heading use the default heading.
func (c Catalog) Platform(name string) Platform {
	p, ok := c.Intermediary.Platforms[name]
	if !ok {
		return c.Intermediary.Default
	}
	if p.Heading == "" {
		p.Heading = c.Intermediary.Default.Heading
	}
	return p
}

// PlatformNames lists the configured intermediaries in alphabetical order.
func (c Catalog) PlatformNames() []string {
	return sortedKeys(c.Intermediary.Platforms)
}

// RequestTypeNames lists the configured telecom request types in alphabetical order.
func (c Catalog) RequestTypeNames() []string {
	return sortedKeys(c.TSP.Requests)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HeadingFor returns the account table heading for an identifier of kind idType.
func (p Platform) HeadingFor(idType string) string {
	if len(p.IDTypes) > 0 && idType != "" {
		return idType + "s"
	}
	return p.Heading
}

// ValidateTemplateDir loads the catalog of dir and checks that the bank template exists and that the intermediary and
// telecom folders hold at least one .docx template each.
func ValidateTemplateDir(dir string) (Catalog, error) {
	attrs := slog.String("template_dir", dir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Catalog{}, errors.Wrap(ErrTemplateDir, "not a directory", attrs)
	}
	c, err := LoadCatalog(dir)
	if err != nil {
		return Catalog{}, errors.Join(errors.Wrap(ErrTemplateDir, "catalog", attrs), err)
	}

	bank := filepath.Join(dir, c.Bank.Template)
	if info, statErr := os.Stat(bank); statErr != nil || info.IsDir() {
		return Catalog{}, errors.Wrap(ErrTemplateDir, "bank template missing", attrs, slog.String("path", bank))
	}
	for _, sub := range []string{c.Intermediary.Dir, c.TSP.Dir} {
		ok, listErr := hasDocx(filepath.Join(dir, sub))
		if listErr != nil {
			return Catalog{}, errors.Join(errors.Wrap(ErrTemplateDir, "list templates", attrs), listErr)
		}
		if !ok {
			return Catalog{}, errors.Wrap(ErrTemplateDir, "no .docx templates", attrs, slog.String("folder", sub))
		}
	}
	return c, nil
}

func hasDocx(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.Wrap(err, "read folder", slog.String("path", dir))
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
			return true, nil
		}
	}
	return false, nil
}

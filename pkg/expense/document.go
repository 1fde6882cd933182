package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// DocumentVersion is the only supported expense document version.
const DocumentVersion = 1

var (
	// ErrUnsupportedVersion is returned for documents with an unknown version tag.
	ErrUnsupportedVersion = errors.New("unsupported expense document version")
	// ErrMalformedConfig is returned for documents that do not decode.
	ErrMalformedConfig = errors.New("malformed expense document")
)

// document is a tenant's billing file:
//
//	{"version": 1, "expenses": [{"type": "recurring", "frequency": "monthly", ...}]}
type document struct {
	Version  int       `json:"version" yaml:"version" toml:"version"`
	Expenses []itemDoc `json:"expenses" yaml:"expenses" toml:"expenses"`
}

type itemDoc struct {
	Type        string  `json:"type" yaml:"type" toml:"type"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Amount      float64 `json:"amount" yaml:"amount" toml:"amount"`
	Date        docDate `json:"date" yaml:"date" toml:"date"`
	Frequency   string  `json:"frequency" yaml:"frequency" toml:"frequency"`
	StartDate   docDate `json:"start_date" yaml:"start_date" toml:"start_date"`
	EndDate     docDate `json:"end_date" yaml:"end_date" toml:"end_date"`
}

// docDate holds a date as declared. TOML decodes bare dates as datetimes,
// which are reformatted to the calendar-day layout.
type docDate string

func (d *docDate) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		*d = docDate(x)
	case time.Time:
		*d = docDate(x.Format(models.DateLayout))
	default:
		return fmt.Errorf("unsupported date value %v", v)
	}
	return nil
}

// LoadConfig reads a JSON, YAML or TOML expense document, chosen by file
// extension.
func LoadConfig(path string) ([]models.ExpenseItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expenses: %w", err)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		_, err = toml.Decode(string(data), &doc)
	default:
		return nil, fmt.Errorf("%s: %w: unknown extension", path, ErrMalformedConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrMalformedConfig, err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("%s: %w: %d", path, ErrUnsupportedVersion, doc.Version)
	}

	items := make([]models.ExpenseItem, 0, len(doc.Expenses))
	for _, e := range doc.Expenses {
		items = append(items, models.ExpenseItem{
			Type:        models.ExpenseType(e.Type),
			Description: e.Description,
			Amount:      decimal.NewFromFloat(e.Amount),
			Date:        string(e.Date),
			Frequency:   models.Frequency(e.Frequency),
			StartDate:   string(e.StartDate),
			EndDate:     string(e.EndDate),
		})
	}
	return items, nil
}

// Locate returns the first of names present under <location>/.claude/, or ""
// when the tenant declares no expenses.
func Locate(location string, names []string) string {
	if location == "" {
		return ""
	}
	for _, name := range names {
		p := filepath.Join(location, ".claude", name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ForTenant locates and loads a tenant's expense items. A tenant without a
// document has no items and no error.
func ForTenant(location string, names []string) ([]models.ExpenseItem, error) {
	path := Locate(location, names)
	if path == "" {
		return nil, nil
	}
	return LoadConfig(path)
}

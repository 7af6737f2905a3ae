package electricity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// UsageDocumentName is the usage export consumed by the forecast pipeline.
const UsageDocumentName = "electricity_usage.json"

type usageDocument struct {
	Data     []UsagePoint `json:"data"`
	Metadata Metadata     `json:"metadata"`
	SavedAt  time.Time    `json:"saved_at"`
}

// WriteUsageDocument exports a collection result into the data folder so the
// offline forecast pipeline can train on it.
func WriteUsageDocument(folder string, result *Result) error {
	if result == nil {
		return errors.New("[WriteUsageDocument] nil result")
	}
	raw, err := json.MarshalIndent(usageDocument{
		Data:     result.UsageData,
		Metadata: result.Metadata,
		SavedAt:  time.Now(),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[WriteUsageDocument] marshal")
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return errors.Wrap(err, "[WriteUsageDocument] create folder")
	}
	path := filepath.Join(folder, UsageDocumentName)
	return errors.Wrap(os.WriteFile(path, raw, 0o644), "[WriteUsageDocument] write")
}

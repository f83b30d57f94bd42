package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"examprep/internal/model"
)

// SetSetting upserts a key-value pair in the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetSetting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetAISettings stores the model selection as settings rows.
func (s *Store) SetAISettings(ai model.AISettings) error {
	pairs := []struct{ k, v string }{
		{"ai_type", ai.Type},
		{"ai_model_name", ai.ModelName},
		{"ai_api_key", ai.APIKey},
		{"ai_base_url", ai.BaseURL},
	}
	for _, p := range pairs {
		if err := s.SetSetting(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetAISettings reads the model selection from settings.
func (s *Store) GetAISettings() (model.AISettings, error) {
	var ai model.AISettings
	var err error

	if ai.Type, err = s.GetSetting("ai_type"); err != nil {
		return ai, err
	}
	if ai.ModelName, err = s.GetSetting("ai_model_name"); err != nil {
		return ai, err
	}
	if ai.APIKey, err = s.GetSetting("ai_api_key"); err != nil {
		return ai, err
	}
	ai.BaseURL, err = s.GetSetting("ai_base_url")
	return ai, err
}

// SetEnabledChapters stores the chapter allow-list for one subject.
// An empty list removes the restriction.
func (s *Store) SetEnabledChapters(subject string, chapters []string) error {
	if len(chapters) == 0 {
		_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, enabledChaptersKey(subject))
		return err
	}
	encoded, err := json.Marshal(chapters)
	if err != nil {
		return err
	}
	return s.SetSetting(enabledChaptersKey(subject), string(encoded))
}

// GetEnabledChapters returns the chapter allow-list for one subject,
// or nil when no restriction is configured.
func (s *Store) GetEnabledChapters(subject string) ([]string, error) {
	value, err := s.GetSetting(enabledChaptersKey(subject))
	if err != nil || value == "" {
		return nil, err
	}
	var chapters []string
	if err := json.Unmarshal([]byte(value), &chapters); err != nil {
		return nil, fmt.Errorf("decode enabled chapters for %s: %w", subject, err)
	}
	return chapters, nil
}

func enabledChaptersKey(subject string) string {
	return "enabled_chapters:" + subject
}

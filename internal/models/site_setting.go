// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"
)

// ThemeSettingKey is the site_settings key holding the theme document.
const ThemeSettingKey = "THEME"

// SiteSetting represents a single row of the generic settings table. Value
// is stored as JSONB; UpdatedAt is for observability only.
type SiteSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

package models

// SettingKey names an instance setting.
type SettingKey string

const (
	SettingEnableRegistration SettingKey = "ENABLE_REGISTRATION"
	SettingMinPasswordLength  SettingKey = "MIN_PASSWORD_LENGTH"
	SettingMOTD               SettingKey = "MOTD"
	SettingRefreshTokenExpiry SettingKey = "REFRESH_TOKEN_EXPIRY_DURATION"
	SettingAuthBackgroundURL  SettingKey = "AUTH_BACKGROUND_URL"
	SettingInstanceTitle      SettingKey = "INSTANCE_TITLE"
)

// SettingType is the declared value type of a setting.
type SettingType string

const (
	SettingString  SettingType = "STRING"
	SettingInteger SettingType = "INTEGER"
	SettingBoolean SettingType = "BOOLEAN"
)

// SettingDefinition declares a known key.
type SettingDefinition struct {
	Key     SettingKey
	Type    SettingType
	Label   string
	Default interface{}
	Public  bool
}

// Setting is a resolved value together with its declaration.
type Setting struct {
	Type  SettingType `json:"type"`
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// UpdateSettingRequest sets a new value. The JSON type must match the
// declared type of the key.
type UpdateSettingRequest struct {
	Value interface{} `json:"value"`
}

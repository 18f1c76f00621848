package settings

import "time"

// Setting keys.
const (
	KeyBusinessHoursStart   = "business_hours_start"
	KeyBusinessHoursEnd     = "business_hours_end"
	KeyBusinessDays         = "business_days"
	KeyBusinessHoursDisplay = "business_hours_display"
	KeyTimezone             = "timezone"
	KeyGreetingBusiness     = "greeting_business_hours"
	KeyGreetingAfterHours   = "greeting_after_hours"
	KeyFooterMessage        = "footer_message"
	KeyDefaultAIProvider    = "default_ai_provider"
	KeyAIMaxTokens          = "ai_max_tokens"
	KeyAITimeout            = "ai_timeout"
	KeySessionTimeout       = "session_timeout"
	KeyLogRetentionDays     = "log_retention_days"
	KeyCompanyName          = "company_name"
)

// Defaults is the hardcoded configuration used for absent keys and whenever
// the settings table cannot be read.
var Defaults = map[string]string{
	KeyBusinessHoursStart:   "09:00",
	KeyBusinessHoursEnd:     "18:00",
	KeyBusinessDays:         "Mon,Tue,Wed,Thu,Fri",
	KeyBusinessHoursDisplay: "Lunes a Viernes de 9:00 a 18:00",
	KeyTimezone:             "America/Argentina/Buenos_Aires",
	KeyGreetingBusiness:     "¡Hola! 👋 Bienvenido a nuestro servicio de atención al cliente. ¿En qué podemos ayudarte hoy?",
	KeyGreetingAfterHours:   "¡Hola! 👋 En este momento estamos fuera del horario de atención, pero puedes consultar nuestras opciones.",
	KeyFooterMessage:        "Escribe el número de la opción que deseas consultar.",
	KeyDefaultAIProvider:    "gemini",
	KeyAIMaxTokens:          "500",
	KeyAITimeout:            "30",
	KeySessionTimeout:       "30",
	KeyLogRetentionDays:     "90",
	KeyCompanyName:          "Nuestra tienda",
}

// Setting is one row of the settings table.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// DaySchedule is the opening window of a single weekday. Start and End are
// "HH:MM" local times.
type DaySchedule struct {
	Open  bool   `json:"open"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusinessHours is the weekly schedule indexed by time.Weekday (Sunday = 0).
type BusinessHours struct {
	Schedule [7]DaySchedule `json:"schedule"`
	Display  string         `json:"display"`
	Timezone string         `json:"timezone"`
}

// Greetings are the menu greetings for open and closed hours.
type Greetings struct {
	BusinessHours string `json:"businessHours"`
	AfterHours    string `json:"afterHours"`
}

// AIConfig holds the AI defaults used when a menu option does not override them.
type AIConfig struct {
	DefaultProvider string        `json:"defaultProvider"`
	MaxTokens       int           `json:"maxTokens"`
	Timeout         time.Duration `json:"timeout"`
	Company         string        `json:"company"`
}

// ValidationResult reports problems found in the stored configuration.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

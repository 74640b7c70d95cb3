package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "haulpulse"
	AppVersion = "1.0.0"

	// Environment variable prefix, e.g. HAUL_SERVER_PORT
	EnvPrefix = "HAUL"

	// Server
	DefaultPort           = 8080
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxUploadBytes = 32 << 20 // 32MB

	// Rate Limiting (uploads per second per client)
	DefaultUploadRateLimit = 2
	DefaultUploadBurst     = 5

	// Sessions
	DefaultSessionTTL      = 2 * time.Hour
	DefaultJanitorInterval = 5 * time.Minute
	DefaultMaxSessions     = 64

	// Logging
	DefaultLogFile = "logs/haulpulse.log"

	// Shipment export columns
	DefaultDateColumn        = "FECHA"
	DefaultVolumeColumn      = "TONELAJE"
	DefaultProductColumn     = "PRODUCTO"
	DefaultCarrierColumn     = "TRANSPORTISTA"
	DefaultDestinationColumn = "DESTINO"

	// Day-first dates as written by the export, e.g. 31-01-2024
	DefaultDateLayout = "02-01-2006"
)

// DefaultRegulationColumns are the optional regulation flag columns.
var DefaultRegulationColumns = []string{"REGULACION 1", "REGULACION 2", "REGULACION 3"}

// DefaultCarrierAliases returns the shipped carrier alias table, variant to canonical name.
// Keys are matched after cleaning, so case and spacing of the keys do not matter.
func DefaultCarrierAliases() map[string]string {
	return map[string]string{
		"M AND Q SPA":  "M&Q SPA",
		"M Y Q SPA":    "M&Q SPA",
		"MQ SPA":       "M&Q SPA",
		"M & Q S.P.A.": "M&Q SPA",
		"M&Q":          "M&Q SPA",

		"JORQUERA TRANSPORTE S A":    "JORQUERA TRANSPORTE S.A.",
		"JORQUERA TRANSPORTES S.A.":  "JORQUERA TRANSPORTE S.A.",
		"JORQUERA TRANSPORTES":       "JORQUERA TRANSPORTE S.A.",
		"TRANSPORTES JORQUERA":       "JORQUERA TRANSPORTE S.A.",
		"JORQUERA TRANSP. S.A.":      "JORQUERA TRANSPORTE S.A.",
		"SOC. TRANSPORTES SAN JUAN":  "TRANSPORTES SAN JUAN LTDA",
		"TRANSPORTES SAN JUAN":       "TRANSPORTES SAN JUAN LTDA",
		"TRANSP. SAN JUAN LTDA.":     "TRANSPORTES SAN JUAN LTDA",
	}
}

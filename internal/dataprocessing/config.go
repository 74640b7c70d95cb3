package dataprocessing

import (
	"fmt"

	"haulpulse/internal/config"
	"haulpulse/pkg/contracts/domain"
)

// ColumnConfig names the columns of the shipment export.
type ColumnConfig struct {
	Date        string
	Volume      string
	Product     string
	Carrier     string
	Destination string
	Regulations []string
}

// Required returns the required columns in reporting order.
func (c ColumnConfig) Required() []string {
	return []string{c.Date, c.Volume, c.Product, c.Carrier, c.Destination}
}

// Config is the immutable configuration of a Pipeline.
type Config struct {
	Columns              ColumnConfig
	DateLayout           string
	LooseCarrierMatching bool
	CarrierAliases       map[string]string
}

// DefaultConfig returns the configuration of the standard shipment export.
func DefaultConfig() Config {
	return ConfigFromSettings(config.DefaultPipelineConfig())
}

// ConfigFromSettings converts loaded application settings.
func ConfigFromSettings(s config.PipelineConfig) Config {
	return Config{
		Columns: ColumnConfig{
			Date:        s.DateColumn,
			Volume:      s.VolumeColumn,
			Product:     s.ProductColumn,
			Carrier:     s.CarrierColumn,
			Destination: s.DestinationColumn,
			Regulations: s.RegulationColumns,
		},
		DateLayout:           s.DateLayout,
		LooseCarrierMatching: s.LooseCarrierMatching,
		CarrierAliases:       s.CarrierAliases,
	}.clone()
}

// clone returns a deep copy so callers cannot mutate a pipeline's configuration.
func (c Config) clone() Config {
	regs := make([]string, len(c.Columns.Regulations))
	copy(regs, c.Columns.Regulations)
	c.Columns.Regulations = regs

	aliases := make(map[string]string, len(c.CarrierAliases))
	for k, v := range c.CarrierAliases {
		aliases[k] = v
	}
	c.CarrierAliases = aliases
	return c
}

func (c Config) validate() error {
	for _, name := range c.Columns.Required() {
		if cleanHeader(name) == "" {
			return fmt.Errorf("required column name must not be empty")
		}
	}
	if c.DateLayout == "" {
		return fmt.Errorf("date layout must not be empty")
	}
	return nil
}

// ErrUnknownDimension is returned for a dimension outside carrier, product and destination.
var ErrUnknownDimension = domain.ErrUnknownDimension

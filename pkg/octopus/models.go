package octopus

import "time"

// ConsumptionRecord is one half-hourly meter reading
type ConsumptionRecord struct {
	Consumption   float64   `json:"consumption"`
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
}

// Start returns the start of the reading interval
func (r ConsumptionRecord) Start() time.Time {
	return r.IntervalStart
}

// consumptionPage is a single page of the consumption endpoint
type consumptionPage struct {
	Count    int                 `json:"count"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []ConsumptionRecord `json:"results"`
}

// Account is an Octopus customer account
type Account struct {
	Number     string     `json:"number"`
	Properties []Property `json:"properties"`
}

// Property is a supply address held by an account
type Property struct {
	ID                     int                     `json:"id"`
	MovedInAt              time.Time               `json:"moved_in_at"`
	MovedOutAt             *time.Time              `json:"moved_out_at"`
	AddressLine1           string                  `json:"address_line_1"`
	AddressLine2           string                  `json:"address_line_2"`
	AddressLine3           string                  `json:"address_line_3"`
	Town                   string                  `json:"town"`
	County                 string                  `json:"county"`
	Postcode               string                  `json:"postcode"`
	ElectricityMeterPoints []ElectricityMeterPoint `json:"electricity_meter_points"`
}

// ElectricityMeterPoint is a supply point identified by its MPAN
type ElectricityMeterPoint struct {
	MPAN                string             `json:"mpan"`
	ProfileClass        int                `json:"profile_class"`
	ConsumptionStandard int                `json:"consumption_standard"`
	Meters              []ElectricityMeter `json:"meters"`
	Agreements          []Agreement        `json:"agreements"`
}

// ElectricityMeter is a physical meter at a meter point
type ElectricityMeter struct {
	SerialNumber string                     `json:"serial_number"`
	Registers    []ElectricityMeterRegister `json:"registers"`
}

// ElectricityMeterRegister is a register of a meter
type ElectricityMeterRegister struct {
	Identifier           string `json:"identifier"`
	Rate                 string `json:"rate"`
	IsSettlementRegister bool   `json:"is_settlement_register"`
}

// Agreement is a tariff agreement on a meter point
type Agreement struct {
	TariffCode string     `json:"tariff_code"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
}

// Meter identifies the meter to read consumption from
type Meter struct {
	MPAN         string
	SerialNumber string
}

// ConsumptionQuery selects the meter and period of a consumption read.
// The meter is resolved from AccountNumber when MPAN or SerialNumber is empty.
// A zero Start reads from the beginning of the meter history; a zero End
// means now.
type ConsumptionQuery struct {
	MPAN          string
	SerialNumber  string
	AccountNumber string
	Start         time.Time
	End           time.Time
}

package domain

import "time"

const RegulationMaxAgenciesPerDistrict = "MAX_AGENCIES_PER_DISTRICT"

type Regulation struct {
	Code        string
	Name        string
	Value       string
	Description *string
	IsActive    bool
	UpdatedAt   time.Time
}

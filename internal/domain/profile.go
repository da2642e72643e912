package domain

// FarmerProfile describes the applicant whose eligibility is being assessed.
type FarmerProfile struct {
	Name                string   `json:"name,omitempty"`
	State               string   `json:"state,omitempty"`
	District            string   `json:"district,omitempty"`
	LandHoldingHectares float64  `json:"land_holding_hectares,omitempty"`
	Category            string   `json:"category,omitempty"`
	AnnualIncome        float64  `json:"annual_income,omitempty"`
	Age                 int      `json:"age,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	Crops               []string `json:"crops,omitempty"`
	IrrigationType      string   `json:"irrigation_type,omitempty"`
}

// Determination is an eligibility verdict returned by the decision collaborator.
type Determination struct {
	Eligible bool    `json:"eligible"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

package model

// WorkSetting is a job's (or candidate's preferred) working arrangement.
type WorkSetting string

// Known work settings. The empty string means "not specified".
const (
	WorkSettingRemote WorkSetting = "remote"
	WorkSettingHybrid WorkSetting = "hybrid"
	WorkSettingOnsite WorkSetting = "onsite"
)

// CandidateProfile is the already-structured attribute bag for a candidate.
// Every field is optional; scoring treats absence as "no credit".
type CandidateProfile struct {
	ID                 string      `json:"id"`
	Skills             []string    `json:"skills,omitempty"`
	PreferredLocations []string    `json:"preferred_locations,omitempty"`
	PreferredSetting   WorkSetting `json:"preferred_setting,omitempty"`
	DesiredSalaryMin   float64     `json:"desired_salary_min,omitempty"`
	YearsExperience    float64     `json:"years_experience,omitempty"`
	PreferredOrgSize   string      `json:"preferred_org_size,omitempty"`
	CultureValues      []string    `json:"culture_values,omitempty"`
	WellbeingNeeds     []string    `json:"wellbeing_needs,omitempty"`
}

// JobProfile is the structured attribute bag for a job posting.
type JobProfile struct {
	ID                 string      `json:"id"`
	RequiredSkills     []string    `json:"required_skills,omitempty"`
	Location           string      `json:"location,omitempty"`
	Setting            WorkSetting `json:"setting,omitempty"`
	SalaryMin          float64     `json:"salary_min,omitempty"`
	SalaryMax          float64     `json:"salary_max,omitempty"`
	MinYearsExperience float64     `json:"min_years_experience,omitempty"`
	OrgSize            string      `json:"org_size,omitempty"`
	CultureValues      []string    `json:"culture_values,omitempty"`
	WellbeingOffers    []string    `json:"wellbeing_offers,omitempty"`
}

// AttributeWeightProfile holds the per-tenant weighting of score
// dimensions and minimum acceptable component scores. Weights are
// non-negative and need not sum to 100; consumers normalize at use time.
type AttributeWeightProfile struct {
	OwnerID string `json:"owner_id,omitempty"`
	Version string `json:"version"`

	TechnicalWeight float64 `json:"technical_weight"`
	CultureWeight   float64 `json:"culture_weight"`
	WellbeingWeight float64 `json:"wellbeing_weight"`

	MinTechnical float64 `json:"min_technical"`
	MinCulture   float64 `json:"min_culture"`
	MinWellbeing float64 `json:"min_wellbeing"`
}

// Normalized returns the three dimension weights scaled to sum to 100.
// A profile with all-zero weights normalizes to an even split so scoring
// never divides by zero.
func (p AttributeWeightProfile) Normalized() (technical, culture, wellbeing float64) {
	total := p.TechnicalWeight + p.CultureWeight + p.WellbeingWeight
	if total <= 0 {
		return 100.0 / 3, 100.0 / 3, 100.0 / 3
	}
	const full = 100
	return p.TechnicalWeight / total * full,
		p.CultureWeight / total * full,
		p.WellbeingWeight / total * full
}

// DefaultWeightProfile is used when an owner has no profile configured.
func DefaultWeightProfile() AttributeWeightProfile {
	return AttributeWeightProfile{
		Version:         "default-v1",
		TechnicalWeight: 40,
		CultureWeight:   30,
		WellbeingWeight: 30,
	}
}

// Package scoring computes candidate-job compatibility scores from
// weighted attribute bags. The calculator is a pure function: no I/O, no
// side effects, deterministic for identical inputs.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hirewire/matchcore/internal/domain/model"
)

// Default sub-factor caps, in points of the 0-100 overall score. Each
// sub-factor is capped before summation so no single factor dominates.
const (
	defaultSkillCap       = 25.0
	defaultLocationCap    = 15.0
	defaultWorkSettingCap = 10.0
	defaultSalaryCap      = 15.0
	defaultExperienceCap  = 10.0
	defaultOrgSizeCap     = 5.0
	defaultCultureCap     = 10.0
	defaultWellbeingCap   = 10.0

	// partialLocationCredit applies when the candidate states no location
	// preference but the job lists one.
	partialLocationCredit = 0.5
	// partialSalaryCredit applies when the job floor sits within
	// salaryFloorTolerance of the candidate's desired minimum.
	partialSalaryCredit  = 0.5
	salaryFloorTolerance = 0.8

	maxScoreValue = 100.0
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithSkillCap overrides the maximum contribution of skill overlap.
func WithSkillCap(cap float64) Option {
	return func(c *Calculator) {
		if cap > 0 {
			c.skillCap = cap
		}
	}
}

// WithCaps overrides all sub-factor caps from a configuration map. Keys:
// skill, location, work_setting, salary, experience, org_size, culture,
// wellbeing. Unknown keys and non-positive values are ignored.
func WithCaps(caps map[string]float64) Option {
	return func(c *Calculator) {
		for name, v := range caps {
			if v <= 0 {
				continue
			}
			switch name {
			case "skill":
				c.skillCap = v
			case "location":
				c.locationCap = v
			case "work_setting":
				c.workSettingCap = v
			case "salary":
				c.salaryCap = v
			case "experience":
				c.experienceCap = v
			case "org_size":
				c.orgSizeCap = v
			case "culture":
				c.cultureCap = v
			case "wellbeing":
				c.wellbeingCap = v
			}
		}
	}
}

// Result is the outcome of one scoring run.
type Result struct {
	Overall       float64
	Skill         float64
	Technical     float64
	Culture       float64
	Wellbeing     float64
	BurnoutRisk   *float64
	MatchedSkills []string
	TopAttributes []model.AttributeContribution
	Reasons       []string
}

// Calculator computes match scores with configurable sub-factor caps.
type Calculator struct {
	skillCap       float64
	locationCap    float64
	workSettingCap float64
	salaryCap      float64
	experienceCap  float64
	orgSizeCap     float64
	cultureCap     float64
	wellbeingCap   float64
}

// NewCalculator creates a calculator with default caps and applies options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		skillCap:       defaultSkillCap,
		locationCap:    defaultLocationCap,
		workSettingCap: defaultWorkSettingCap,
		salaryCap:      defaultSalaryCap,
		experienceCap:  defaultExperienceCap,
		orgSizeCap:     defaultOrgSizeCap,
		cultureCap:     defaultCultureCap,
		wellbeingCap:   defaultWellbeingCap,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Score computes the compatibility score between candidate and job under
// the given weight profile. Missing optional attributes on either side
// contribute zero; the function never fails for absent data.
func (c *Calculator) Score(candidate model.CandidateProfile, job model.JobProfile, weights model.AttributeWeightProfile) Result {
	var (
		res           Result
		contributions []model.AttributeContribution
	)

	// Dimension weights, normalized to sum to 100. A scale of 1.0 means
	// the profile weighs that dimension as an even third.
	techW, cultureW, wellbeingW := weights.Normalized()
	const evenWeight = 100.0 / 3
	techScale := techW / evenWeight
	cultureScale := cultureW / evenWeight
	wellbeingScale := wellbeingW / evenWeight

	add := func(name string, points float64, reason string) {
		if points <= 0 {
			return
		}
		res.Overall += points
		contributions = append(contributions, model.AttributeContribution{Name: name, Contribution: points})
		res.Reasons = append(res.Reasons, reason)
	}

	// Skill overlap.
	matched := matchSkills(candidate.Skills, job.RequiredSkills)
	res.MatchedSkills = matched
	if required := len(job.RequiredSkills); required > 0 && len(matched) > 0 {
		ratio := float64(len(matched)) / math.Max(float64(required), 1)
		points := math.Min(ratio*c.skillCap*techScale, c.skillCap)
		add("skill", points, fmt.Sprintf("matched %d of %d required skills", len(matched), required))
	}

	// Location.
	switch {
	case job.Location == "":
		// no location attribute, no credit
	case len(candidate.PreferredLocations) == 0:
		add("location", c.locationCap*partialLocationCredit, "no location preference set; job lists a location")
	case locationMatches(candidate.PreferredLocations, job.Location):
		add("location", c.locationCap, fmt.Sprintf("job location %q matches a preferred location", job.Location))
	}

	// Work setting.
	if job.Setting != "" && job.Setting == candidate.PreferredSetting {
		add("work_setting", c.workSettingCap, fmt.Sprintf("work setting %q matches preference", job.Setting))
	}

	// Salary fit.
	if candidate.DesiredSalaryMin > 0 && job.SalaryMax > 0 {
		switch {
		case job.SalaryMax >= candidate.DesiredSalaryMin:
			add("salary", c.salaryCap, "salary ceiling meets desired minimum")
		case job.SalaryMin >= candidate.DesiredSalaryMin*salaryFloorTolerance:
			add("salary", c.salaryCap*partialSalaryCredit, "salary floor is close to desired minimum")
		}
	}

	// Experience.
	if candidate.YearsExperience > 0 && job.MinYearsExperience > 0 &&
		candidate.YearsExperience >= job.MinYearsExperience {
		add("experience", c.experienceCap, fmt.Sprintf("%.0f years experience meets the %.0f year requirement",
			candidate.YearsExperience, job.MinYearsExperience))
	}

	// Company size preference.
	if candidate.PreferredOrgSize != "" && job.OrgSize != "" &&
		strings.EqualFold(candidate.PreferredOrgSize, job.OrgSize) {
		add("org_size", c.orgSizeCap, fmt.Sprintf("organization size %q matches preference", job.OrgSize))
	}

	// Culture and wellbeing overlap ratios.
	cultureRatio := overlapRatio(candidate.CultureValues, job.CultureValues)
	if cultureRatio > 0 {
		points := math.Min(cultureRatio*c.cultureCap*cultureScale, c.cultureCap)
		add("culture", points, fmt.Sprintf("%.0f%% culture value overlap", cultureRatio*100))
	}
	wellbeingRatio := overlapRatio(candidate.WellbeingNeeds, job.WellbeingOffers)
	if wellbeingRatio > 0 {
		points := math.Min(wellbeingRatio*c.wellbeingCap*wellbeingScale, c.wellbeingCap)
		add("wellbeing", points, fmt.Sprintf("%.0f%% of wellbeing needs covered", wellbeingRatio*100))
	}

	res.Overall = math.Max(0, math.Min(maxScoreValue, res.Overall))

	// Component scores on the 0-100 scale, independent of sub-factor caps.
	if len(job.RequiredSkills) > 0 {
		res.Skill = math.Min(float64(len(matched))/float64(len(job.RequiredSkills))*maxScoreValue, maxScoreValue)
	}
	res.Technical = res.Skill
	res.Culture = cultureRatio * maxScoreValue
	res.Wellbeing = wellbeingRatio * maxScoreValue

	// Burnout risk: only derivable when the candidate states wellbeing
	// needs at all; the uncovered share of those needs is the risk signal.
	if len(candidate.WellbeingNeeds) > 0 {
		risk := (1 - wellbeingRatio) * maxScoreValue
		res.BurnoutRisk = &risk
	}

	res.TopAttributes = topContributions(contributions)
	return res
}

// ScoredJob pairs a job id with its overall score for ordering.
type ScoredJob struct {
	JobID   string
	Overall float64
}

// SortScored sorts in place by overall desc, job id asc on ties.
func SortScored(jobs []ScoredJob) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Overall != jobs[j].Overall {
			return jobs[i].Overall > jobs[j].Overall
		}
		return jobs[i].JobID < jobs[j].JobID
	})
}

// matchSkills intersects candidate and required skills, case-insensitive
// and substring-tolerant ("go" matches "golang"). Returns required-skill
// spellings for stable output.
func matchSkills(candidateSkills, requiredSkills []string) []string {
	if len(candidateSkills) == 0 || len(requiredSkills) == 0 {
		return nil
	}
	var matched []string
	for _, req := range requiredSkills {
		reqNorm := strings.ToLower(strings.TrimSpace(req))
		if reqNorm == "" {
			continue
		}
		for _, have := range candidateSkills {
			haveNorm := strings.ToLower(strings.TrimSpace(have))
			if haveNorm == "" {
				continue
			}
			if strings.Contains(haveNorm, reqNorm) || strings.Contains(reqNorm, haveNorm) {
				matched = append(matched, req)
				break
			}
		}
	}
	return matched
}

func locationMatches(preferred []string, location string) bool {
	for _, p := range preferred {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(location)) {
			return true
		}
	}
	return false
}

// overlapRatio returns |wants ∩ offers| / |wants|, zero when either side
// is absent.
func overlapRatio(wants, offers []string) float64 {
	if len(wants) == 0 || len(offers) == 0 {
		return 0
	}
	offered := make(map[string]struct{}, len(offers))
	for _, o := range offers {
		offered[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}
	var hits int
	for _, w := range wants {
		if _, ok := offered[strings.ToLower(strings.TrimSpace(w))]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(wants))
}

// topContributions orders contributions by points descending (name
// ascending on ties) for the record's topAttributes list.
func topContributions(contributions []model.AttributeContribution) []model.AttributeContribution {
	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].Contribution != contributions[j].Contribution {
			return contributions[i].Contribution > contributions[j].Contribution
		}
		return contributions[i].Name < contributions[j].Name
	})
	return contributions
}
